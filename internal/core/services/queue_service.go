package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"queueflow/internal/adapters/persistence/repositories"
	"queueflow/internal/core/domain"
	"queueflow/internal/core/queue"
	"queueflow/internal/pkg/clock"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HistoryLimit caps participant history and is the default center page size
const HistoryLimit = 100

// serviceSampleSize is how many completed tokens feed the real average
const serviceSampleSize = 200

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

var terminalStatuses = []domain.TokenStatus{domain.StatusCompleted, domain.StatusExpired}

// QueueService orchestrates the queue engine: one writer per lane, a
// transaction per step, notifications after commit.
type QueueService struct {
	centers      repositories.CenterRepository
	participants repositories.ParticipantRepository
	tokens       repositories.TokenRepository
	notifier     Notifier
	clock        clock.Clock
	loc          *time.Location
	locks        *queue.LaneLocks
	tracer       trace.Tracer
}

// NewQueueService creates a new queue service
func NewQueueService(
	centers repositories.CenterRepository,
	participants repositories.ParticipantRepository,
	tokens repositories.TokenRepository,
	notifier Notifier,
	clk clock.Clock,
	loc *time.Location,
) *QueueService {
	if notifier == nil {
		notifier = MultiNotifier{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &QueueService{
		centers:      centers,
		participants: participants,
		tokens:       tokens,
		notifier:     notifier,
		clock:        clk,
		loc:          loc,
		locks:        queue.NewLaneLocks(),
		tracer:       otel.Tracer("queueflow/services"),
	}
}

// ============================================================
// Token lifecycle
// ============================================================

// Admit books a participant into a lane. Online tokens wait for payment;
// walk-ins are Active and scheduled at once.
func (s *QueueService) Admit(ctx context.Context, centerID uint, lane domain.Lane, participantID uint) (tok *domain.Token, err error) {
	ctx, span := s.startSpan(ctx, "Admit", laneAttrs(centerID, lane)...)
	defer func() { endSpan(span, err) }()

	if !lane.Valid() {
		return nil, fmt.Errorf("%w: unknown lane %q", domain.ErrInvalidInput, lane)
	}
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("participant %d: %w", participantID, err)
	}
	center, err := s.centers.GetByID(ctx, centerID)
	if err != nil {
		return nil, fmt.Errorf("center %d: %w", centerID, err)
	}
	if !center.IsActive {
		return nil, fmt.Errorf("%w: center %s is not accepting tokens", domain.ErrInvalidState, center.Code)
	}

	err = s.inLane(ctx, centerID, lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		live, err := tx.FindLive(participantID, now)
		if err != nil {
			return err
		}
		if live != nil {
			return fmt.Errorf("%w: %s at center %d", domain.ErrDuplicateActiveToken, live.Label, live.CenterID)
		}
		if l.Full() {
			return fmt.Errorf("%w: %d waiting in %s", domain.ErrQueueFull, l.Waiting(), lane)
		}

		day := s.serviceDay(now)
		seq, err := tx.NextSequence(day)
		if err != nil {
			return err
		}

		t := &domain.Token{
			Ref:           uuid.NewString(),
			CenterID:      centerID,
			ParticipantID: participantID,
			Lane:          lane,
			SequenceNo:    seq,
			ServiceDay:    day,
			Label:         domain.SequenceLabel(lane, seq),
			Status:        domain.StatusPendingPayment,
			CreatedAt:     now,
			Origin:        participant.Location,
		}
		if lane == domain.LaneWalkin {
			activated := now
			t.Status = domain.StatusActive
			t.ActivatedAt = &activated
		}
		if err := tx.Create(t); err != nil {
			return err
		}
		l.Add(t)

		if t.Status == domain.StatusActive {
			changed := queue.Schedule(l, t, now)
			if err := tx.Save(changed...); err != nil {
				return err
			}
			s.announceScheduled(out, l, changed)
		}

		tok = t
		out.add(func() {
			s.notifier.QueueChanged(centerID, lane, "token_created", map[string]interface{}{
				"token":  t.Label,
				"status": t.Status,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token %s created (center %d, participant %d, %s)", tok.Label, centerID, participantID, tok.Status)
	return tok, nil
}

// ConfirmPayment activates a PendingPayment token and stamps its timeline
func (s *QueueService) ConfirmPayment(ctx context.Context, tokenID uint) (tok *domain.Token, err error) {
	ctx, span := s.startSpan(ctx, "ConfirmPayment", attribute.Int64("token.id", int64(tokenID)))
	defer func() { endSpan(span, err) }()

	stored, err := s.getToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	err = s.inLane(ctx, stored.CenterID, stored.Lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		t, err := liveToken(l, tokenID)
		if err != nil {
			return err
		}
		if err := queue.Activate(t, now); err != nil {
			return err
		}
		changed := queue.Schedule(l, t, now)
		if err := tx.Save(changed...); err != nil {
			return err
		}
		s.announceScheduled(out, l, changed)
		out.add(func() {
			s.notifier.QueueChanged(t.CenterID, t.Lane, "token_activated", map[string]interface{}{"token": t.Label})
		})
		tok = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Payment confirmed for %s, leave by %s", tok.Label, tok.LeaveBy.In(s.loc).Format("15:04"))
	return tok, nil
}

// Cancel expires a PendingPayment or Active token on behalf of its holder
// or an operator of its center
func (s *QueueService) Cancel(ctx context.Context, tokenID uint, actor Actor) (tok *domain.Token, err error) {
	ctx, span := s.startSpan(ctx, "Cancel",
		attribute.Int64("token.id", int64(tokenID)),
		attribute.String("actor", actor.String()))
	defer func() { endSpan(span, err) }()

	stored, err := s.getToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	switch actor.Kind {
	case "participant":
		if stored.ParticipantID != actor.ID {
			return nil, fmt.Errorf("%w: token %d belongs to another participant", domain.ErrForbidden, tokenID)
		}
	case "operator":
		if stored.CenterID != actor.CenterID {
			return nil, fmt.Errorf("%w: token %d belongs to another center", domain.ErrForbidden, tokenID)
		}
	default:
		return nil, fmt.Errorf("%w: unknown actor %q", domain.ErrInvalidInput, actor.Kind)
	}

	err = s.inLane(ctx, stored.CenterID, stored.Lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		t, err := liveToken(l, tokenID)
		if err != nil {
			return err
		}
		wasActive := t.Status == domain.StatusActive
		if err := queue.Cancel(t, now, actor.String()); err != nil {
			return err
		}

		var rescheduled []*domain.Token
		if wasActive {
			rescheduled = queue.Recalculate(l, now)
		}
		if err := tx.Save(append([]*domain.Token{t}, rescheduled...)...); err != nil {
			return err
		}

		out.add(func() { s.notifier.TokenExpired(t) })
		s.announceScheduled(out, l, rescheduled)
		out.add(func() {
			s.notifier.QueueChanged(t.CenterID, t.Lane, "token_cancelled", map[string]interface{}{"token": t.Label})
		})
		tok = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🗑️ Token %s cancelled by %s", tok.Label, actor)
	return tok, nil
}

// MarkNoShow expires an Active or Serving token on the operator's word and
// counts it against the participant
func (s *QueueService) MarkNoShow(ctx context.Context, tokenID uint, reason, notes string) (tok *domain.Token, err error) {
	ctx, span := s.startSpan(ctx, "MarkNoShow", attribute.Int64("token.id", int64(tokenID)))
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}
	if n := strings.TrimSpace(notes); n != "" {
		reason = reason + " - " + n
	}

	stored, err := s.getToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	err = s.inLane(ctx, stored.CenterID, stored.Lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		t, err := liveToken(l, tokenID)
		if err != nil {
			return err
		}
		if err := queue.NoShow(t, now, reason); err != nil {
			return err
		}
		if err := tx.IncrementNoShow(t.ParticipantID); err != nil {
			return err
		}

		rescheduled := queue.Recalculate(l, now)
		if err := tx.Save(append([]*domain.Token{t}, rescheduled...)...); err != nil {
			return err
		}

		out.add(func() { s.notifier.TokenExpired(t) })
		s.announceScheduled(out, l, rescheduled)
		out.add(func() {
			s.notifier.QueueChanged(t.CenterID, t.Lane, "token_no_show", map[string]interface{}{
				"token":  t.Label,
				"reason": reason,
			})
		})
		tok = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("⚠️ Token %s marked no-show: %s", tok.Label, reason)
	return tok, nil
}

// Complete finishes the token at the counter without calling the next one
func (s *QueueService) Complete(ctx context.Context, tokenID uint) (tok *domain.Token, err error) {
	ctx, span := s.startSpan(ctx, "Complete", attribute.Int64("token.id", int64(tokenID)))
	defer func() { endSpan(span, err) }()

	stored, err := s.getToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	err = s.inLane(ctx, stored.CenterID, stored.Lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		t, err := liveToken(l, tokenID)
		if err != nil {
			return err
		}
		if err := queue.Complete(t, now); err != nil {
			return err
		}
		if err := tx.Save(t); err != nil {
			return err
		}
		out.add(func() {
			s.notifier.QueueChanged(t.CenterID, t.Lane, "token_completed", map[string]interface{}{"token": t.Label})
		})
		tok = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token %s completed", tok.Label)
	return tok, nil
}

// CallNext runs the admission gate for one lane
func (s *QueueService) CallNext(ctx context.Context, centerID uint, lane domain.Lane) (res *queue.Admission, err error) {
	ctx, span := s.startSpan(ctx, "CallNext", laneAttrs(centerID, lane)...)
	defer func() { endSpan(span, err) }()

	if !lane.Valid() {
		return nil, fmt.Errorf("%w: unknown lane %q", domain.ErrInvalidInput, lane)
	}

	var admission queue.Admission
	err = s.atGate(ctx, centerID, lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		admission = queue.CallNext(l, now)
		if len(admission.Changed) > 0 {
			if err := tx.Save(admission.Changed...); err != nil {
				return err
			}
		}

		for _, t := range admission.Expired {
			out.add(func() { s.notifier.TokenExpired(t) })
		}
		for _, t := range admission.Skipped {
			out.add(func() { s.notifier.TokenExpired(t) })
		}
		if admission.Outcome == queue.OutcomeAdmitted {
			called := admission.Token
			out.add(func() { s.notifier.TokenCalled(called) })
		}
		s.announceScheduled(out, l, admission.Changed)

		data := map[string]interface{}{"outcome": admission.Outcome}
		if admission.Token != nil {
			data["token"] = admission.Token.Label
		}
		if admission.RetryAt != nil {
			data["retry_at"] = admission.RetryAt.In(s.loc).Format(time.RFC3339)
		}
		out.add(func() { s.notifier.QueueChanged(centerID, lane, "call_next", data) })
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("outcome", string(admission.Outcome)))
	switch admission.Outcome {
	case queue.OutcomeAdmitted:
		log.Printf("✅ Call-next center %d %s → %s admitted", centerID, lane, admission.Token.Label)
	case queue.OutcomeDenied:
		log.Printf("⚠️ Call-next center %d %s denied until %s", centerID, lane, admission.RetryAt.In(s.loc).Format("15:04"))
	default:
		log.Printf("✅ Call-next center %d %s → lane empty", centerID, lane)
	}
	return &admission, nil
}

// ============================================================
// Reads
// ============================================================

// QueueState sweeps the lane and returns a snapshot of it
func (s *QueueService) QueueState(ctx context.Context, centerID uint, lane domain.Lane) (view *LaneView, err error) {
	ctx, span := s.startSpan(ctx, "QueueState", laneAttrs(centerID, lane)...)
	defer func() { endSpan(span, err) }()

	if !lane.Valid() {
		return nil, fmt.Errorf("%w: unknown lane %q", domain.ErrInvalidInput, lane)
	}

	err = s.inLane(ctx, centerID, lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		view = &LaneView{Center: l.Center, State: queue.Snapshot(l, now), AsOf: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Dashboard returns the state of both lanes of a center
func (s *QueueService) Dashboard(ctx context.Context, centerID uint) ([]*LaneView, error) {
	views := make([]*LaneView, 0, len(domain.Lanes))
	for _, lane := range domain.Lanes {
		view, err := s.QueueState(ctx, centerID, lane)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// TokenDetail returns a token with its live position
func (s *QueueService) TokenDetail(ctx context.Context, tokenID uint) (*Tracking, error) {
	stored, err := s.getToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return s.track(ctx, stored)
}

// TrackByRef looks a token up by its public ref
func (s *QueueService) TrackByRef(ctx context.Context, ref string) (*Tracking, error) {
	stored, err := s.tokens.GetByRef(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", ref, err)
	}
	return s.track(ctx, stored)
}

// TrackByLabel looks up today's token with a display label at a center
func (s *QueueService) TrackByLabel(ctx context.Context, centerID uint, label string) (*Tracking, error) {
	lane, seq, err := domain.ParseSequenceLabel(label)
	if err != nil {
		return nil, err
	}
	day := s.serviceDay(s.clock.Now())
	stored, err := s.tokens.GetByLabel(ctx, centerID, day, domain.SequenceLabel(lane, seq))
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", label, err)
	}
	return s.track(ctx, stored)
}

func (s *QueueService) track(ctx context.Context, stored *domain.Token) (tr *Tracking, err error) {
	ctx, span := s.startSpan(ctx, "Track", attribute.Int64("token.id", int64(stored.ID)))
	defer func() { endSpan(span, err) }()

	err = s.inLane(ctx, stored.CenterID, stored.Lane, func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error {
		tr = &Tracking{Center: l.Center, Serving: l.Serving(), AsOf: now}
		t := l.Find(stored.ID)
		if t == nil {
			return nil
		}
		tr.Token = t
		tr.Position = l.Position(t.ID)
		if t.Status == domain.StatusActive {
			tr.ETA = t.EstimatedServiceStart
			tr.Badge = queue.StatusBadge(t, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tr.Token == nil {
		// terminal, possibly expired by the sweep above
		fresh, err := s.getToken(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
		tr.Token = fresh
	}
	return tr, nil
}

// ParticipantHistory returns the participant's finished tokens, newest first
func (s *QueueService) ParticipantHistory(ctx context.Context, participantID uint) ([]*domain.Token, error) {
	if _, err := s.participants.GetByID(ctx, participantID); err != nil {
		return nil, fmt.Errorf("participant %d: %w", participantID, err)
	}
	tokens, _, err := s.tokens.History(ctx, domain.TokenFilter{
		ParticipantID: participantID,
		Statuses:      terminalStatuses,
	}, 0, HistoryLimit)
	return tokens, err
}

// CenterHistory returns a page of a center's finished tokens, newest first
func (s *QueueService) CenterHistory(ctx context.Context, centerID uint, offset, limit int) ([]*domain.Token, int64, error) {
	if _, err := s.centers.GetByID(ctx, centerID); err != nil {
		return nil, 0, fmt.Errorf("center %d: %w", centerID, err)
	}
	if limit <= 0 {
		limit = HistoryLimit
	}
	return s.tokens.History(ctx, domain.TokenFilter{
		CenterID: centerID,
		Statuses: terminalStatuses,
	}, offset, limit)
}

// Analytics summarizes the last seven days of a center
func (s *QueueService) Analytics(ctx context.Context, centerID uint) (a *Analytics, err error) {
	ctx, span := s.startSpan(ctx, "Analytics", attribute.Int64("center.id", int64(centerID)))
	defer func() { endSpan(span, err) }()

	center, err := s.centers.GetByID(ctx, centerID)
	if err != nil {
		return nil, fmt.Errorf("center %d: %w", centerID, err)
	}

	now := s.clock.Now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	a = &Analytics{ConfiguredServiceMins: center.AvgServiceMinutes}

	for i := 6; i >= 0; i-- {
		from := midnight.AddDate(0, 0, -i)
		to := from.AddDate(0, 0, 1)
		n, err := s.tokens.Count(ctx, domain.TokenFilter{CenterID: centerID, CreatedFrom: &from, CreatedTo: &to})
		if err != nil {
			return nil, err
		}
		a.Daily = append(a.Daily, DailyCount{Day: from.Format("2006-01-02"), Label: from.Format("Mon"), Count: n})
	}
	a.Today = a.Daily[len(a.Daily)-1].Count

	totals := []struct {
		dst *int64
		f   domain.TokenFilter
	}{
		{&a.Online, domain.TokenFilter{CenterID: centerID, Lane: domain.LaneOnline}},
		{&a.Walkin, domain.TokenFilter{CenterID: centerID, Lane: domain.LaneWalkin}},
		{&a.Completed, domain.TokenFilter{CenterID: centerID, Statuses: []domain.TokenStatus{domain.StatusCompleted}}},
		{&a.Expired, domain.TokenFilter{CenterID: centerID, Statuses: []domain.TokenStatus{domain.StatusExpired}}},
		{&a.NoShows, domain.TokenFilter{CenterID: centerID, NoShowOnly: true}},
	}
	for _, total := range totals {
		n, err := s.tokens.Count(ctx, total.f)
		if err != nil {
			return nil, err
		}
		*total.dst = n
	}

	a.AvgServiceMinutes = float64(center.AvgServiceMinutes)
	durations, err := s.tokens.ServiceDurations(ctx, centerID, serviceSampleSize)
	if err != nil {
		return nil, err
	}
	if len(durations) > 0 {
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		avg := sum.Minutes() / float64(len(durations))
		a.AvgServiceMinutes = math.Round(avg*10) / 10
	}
	return a, nil
}

// ============================================================
// Centers & participants
// ============================================================

// ListCenters returns active centers
func (s *QueueService) ListCenters(ctx context.Context) ([]domain.ServiceCenter, error) {
	return s.centers.List(ctx, true)
}

// GetCenter returns one center
func (s *QueueService) GetCenter(ctx context.Context, centerID uint) (*domain.ServiceCenter, error) {
	c, err := s.centers.GetByID(ctx, centerID)
	if err != nil {
		return nil, fmt.Errorf("center %d: %w", centerID, err)
	}
	return c, nil
}

// UpdateCenterProfile edits the operator-owned center fields. Existing
// estimates are kept; the new service time applies from the next schedule.
func (s *QueueService) UpdateCenterProfile(ctx context.Context, centerID uint, in *CenterProfileInput) (*domain.ServiceCenter, error) {
	c, err := s.GetCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}

	if in.AvgServiceMinutes != nil {
		if *in.AvgServiceMinutes <= 0 {
			return nil, fmt.Errorf("%w: avg_service_minutes must be positive", domain.ErrInvalidInput)
		}
		c.AvgServiceMinutes = *in.AvgServiceMinutes
	}
	if in.Latitude != nil || in.Longitude != nil {
		loc, err := geoInput(in.Latitude, in.Longitude)
		if err != nil {
			return nil, err
		}
		c.Location = loc
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}

	if err := s.centers.Update(ctx, c); err != nil {
		return nil, err
	}
	for _, lane := range domain.Lanes {
		s.notifier.QueueChanged(centerID, lane, "center_updated", map[string]interface{}{
			"avg_service_minutes": c.AvgServiceMinutes,
		})
	}

	log.Printf("✅ Center %s profile updated (avg %d min)", c.Code, c.AvgServiceMinutes)
	return c, nil
}

// RegisterParticipant creates a participant or refreshes the one holding
// the same mobile number
func (s *QueueService) RegisterParticipant(ctx context.Context, in *ParticipantInput) (*domain.Participant, error) {
	name := strings.TrimSpace(in.Name)
	mobile := normalizeMobile(in.Mobile)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !mobilePattern.MatchString(mobile) {
		return nil, fmt.Errorf("%w: mobile must be 10 digits", domain.ErrInvalidInput)
	}
	loc, err := geoInput(in.Latitude, in.Longitude)
	if err != nil {
		return nil, err
	}

	existing, err := s.participants.GetByMobile(ctx, mobile)
	switch {
	case err == nil:
		existing.Name = name
		existing.Email = strings.TrimSpace(in.Email)
		if loc != nil {
			existing.Location = loc
		}
		if err := s.participants.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, domain.ErrNotFound):
		p := &domain.Participant{Name: name, Mobile: mobile, Email: strings.TrimSpace(in.Email), Location: loc}
		if err := s.participants.Create(ctx, p); err != nil {
			return nil, err
		}
		log.Printf("✅ Participant registered: %d", p.ID)
		return p, nil
	default:
		return nil, err
	}
}

// GetParticipant returns one participant
func (s *QueueService) GetParticipant(ctx context.Context, participantID uint) (*domain.Participant, error) {
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("participant %d: %w", participantID, err)
	}
	return p, nil
}

// AddWalkin books a walk-in for someone standing at the counter. Without a
// valid mobile number an anonymous participant is created.
func (s *QueueService) AddWalkin(ctx context.Context, centerID uint, in *WalkinInput) (*domain.Token, error) {
	p, err := s.walkinParticipant(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.Admit(ctx, centerID, domain.LaneWalkin, p.ID)
}

func (s *QueueService) walkinParticipant(ctx context.Context, in *WalkinInput) (*domain.Participant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Walk-in"
	}
	loc, err := geoInput(in.Latitude, in.Longitude)
	if err != nil {
		return nil, err
	}

	mobile := normalizeMobile(in.Mobile)
	if mobilePattern.MatchString(mobile) {
		p, err := s.participants.GetByMobile(ctx, mobile)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	} else {
		base := fmt.Sprintf("W%d", s.clock.Now().Unix())
		mobile = base
		for i := 1; ; i++ {
			_, err := s.participants.GetByMobile(ctx, mobile)
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			if err != nil {
				return nil, err
			}
			mobile = fmt.Sprintf("%s-%d", base, i)
		}
	}

	p := &domain.Participant{Name: name, Mobile: mobile, Location: loc}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ============================================================
// Sweeping
// ============================================================

// SweepAll sweeps every lane that holds live tokens and returns how many
// tokens expired. A failing lane is logged and skipped.
func (s *QueueService) SweepAll(ctx context.Context) (expired int, err error) {
	ctx, span := s.startSpan(ctx, "SweepAll")
	defer func() { endSpan(span, err) }()

	keys, err := s.tokens.LiveLanes(ctx)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		n, err := s.sweepLane(ctx, key)
		if err != nil {
			log.Printf("❌ Sweep %s failed: %v", key, err)
			continue
		}
		expired += n
	}
	span.SetAttributes(attribute.Int("lanes", len(keys)), attribute.Int("expired", expired))
	return expired, nil
}

func (s *QueueService) sweepLane(ctx context.Context, key queue.LaneKey) (int, error) {
	unlock := s.locks.Lock(key)
	defer unlock()
	return s.sweepLocked(ctx, key.CenterID, key.Lane, s.clock.Now())
}

// sweepLocked commits one sweep of a lane. The caller holds the lane lock.
func (s *QueueService) sweepLocked(ctx context.Context, centerID uint, lane domain.Lane, now time.Time) (int, error) {
	var out outbox
	expired := 0
	err := s.tokens.WithLane(ctx, centerID, lane, func(tx repositories.LaneTx, l *queue.Lane) error {
		res := queue.Sweep(l, now)
		changed := res.Changed()
		if len(changed) == 0 {
			return nil
		}
		if err := tx.Save(changed...); err != nil {
			return err
		}
		expired = len(res.Expired)

		for _, t := range res.Expired {
			out.add(func() { s.notifier.TokenExpired(t) })
		}
		s.announceScheduled(&out, l, res.Rescheduled)
		out.add(func() {
			s.notifier.QueueChanged(centerID, lane, "sweep", map[string]interface{}{"expired": expired})
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		log.Printf("🗑️ Swept %d tokens from center %d lane %s", expired, centerID, lane)
	}
	out.flush()
	return expired, nil
}

// ============================================================
// Helpers
// ============================================================

type laneFunc func(tx repositories.LaneTx, l *queue.Lane, now time.Time, out *outbox) error

// inLane holds the lane lock, commits a sweep, then runs fn in a second
// transaction. Notifications queued by fn go out only if it commits.
func (s *QueueService) inLane(ctx context.Context, centerID uint, lane domain.Lane, fn laneFunc) error {
	return s.runLane(ctx, centerID, lane, true, fn)
}

// atGate is inLane without the separate sweep. queue.CallNext expires
// stale tokens itself and recalculates only after deciding, so a head that
// has already arrived keeps its arrival time.
func (s *QueueService) atGate(ctx context.Context, centerID uint, lane domain.Lane, fn laneFunc) error {
	return s.runLane(ctx, centerID, lane, false, fn)
}

func (s *QueueService) runLane(ctx context.Context, centerID uint, lane domain.Lane, sweep bool, fn laneFunc) error {
	unlock := s.locks.Lock(queue.LaneKey{CenterID: centerID, Lane: lane})
	defer unlock()

	now := s.clock.Now()
	if sweep {
		if _, err := s.sweepLocked(ctx, centerID, lane, now); err != nil {
			return err
		}
	}

	var out outbox
	err := s.tokens.WithLane(ctx, centerID, lane, func(tx repositories.LaneTx, l *queue.Lane) error {
		return fn(tx, l, now, &out)
	})
	if err != nil {
		return err
	}
	out.flush()
	return nil
}

// outbox holds notifications until their transaction commits
type outbox []func()

func (o *outbox) add(fn func()) {
	*o = append(*o, fn)
}

func (o outbox) flush() {
	for _, fn := range o {
		fn()
	}
}

func (s *QueueService) announceScheduled(out *outbox, l *queue.Lane, tokens []*domain.Token) {
	for _, t := range tokens {
		if t.Status != domain.StatusActive {
			continue
		}
		pos := l.Position(t.ID)
		out.add(func() { s.notifier.TokenScheduled(t, pos) })
	}
}

func (s *QueueService) getToken(ctx context.Context, tokenID uint) (*domain.Token, error) {
	t, err := s.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("token %d: %w", tokenID, err)
	}
	return t, nil
}

func (s *QueueService) serviceDay(now time.Time) string {
	return now.In(s.loc).Format("2006-01-02")
}

func (s *QueueService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "QueueService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func laneAttrs(centerID uint, lane domain.Lane) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("center.id", int64(centerID)),
		attribute.String("lane", string(lane)),
	}
}

func liveToken(l *queue.Lane, tokenID uint) (*domain.Token, error) {
	t := l.Find(tokenID)
	if t == nil {
		return nil, fmt.Errorf("%w: token %d is no longer in the queue", domain.ErrInvalidState, tokenID)
	}
	return t, nil
}

func normalizeMobile(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

func geoInput(lat, lon *float64) (*domain.GeoPoint, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("%w: latitude and longitude go together", domain.ErrInvalidInput)
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	}
	return &domain.GeoPoint{Lat: *lat, Lon: *lon}, nil
}
