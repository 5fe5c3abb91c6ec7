package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/pkg/password"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile is the YAML layout of SEED_CENTERS_FILE
type SeedFile struct {
	Centers []SeedCenter `yaml:"centers"`
}

// SeedCenter describes one center and its operators
type SeedCenter struct {
	Code              string         `yaml:"code"`
	Name              string         `yaml:"name"`
	Address           string         `yaml:"address"`
	Phone             string         `yaml:"phone"`
	Latitude          *float64       `yaml:"latitude"`
	Longitude         *float64       `yaml:"longitude"`
	AvgServiceMinutes int            `yaml:"avg_service_minutes"`
	Operators         []SeedOperator `yaml:"operators"`
}

// SeedOperator describes one operator login
type SeedOperator struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// ParseSeedFile decodes and validates a seed document
func ParseSeedFile(data []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := map[string]bool{}
	for i := range f.Centers {
		c := &f.Centers[i]
		c.Code = strings.TrimSpace(c.Code)
		if c.Code == "" || strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("center #%d: code and name are required", i+1)
		}
		if seen[c.Code] {
			return nil, fmt.Errorf("center %s: duplicate code", c.Code)
		}
		seen[c.Code] = true
		if (c.Latitude == nil) != (c.Longitude == nil) {
			return nil, fmt.Errorf("center %s: latitude and longitude go together", c.Code)
		}
		if c.AvgServiceMinutes == 0 {
			c.AvgServiceMinutes = 15
		}
		if c.AvgServiceMinutes < 0 {
			return nil, fmt.Errorf("center %s: avg_service_minutes must be positive", c.Code)
		}
		for j := range c.Operators {
			op := &c.Operators[j]
			if op.Username == "" || !password.ValidatePassword(op.Password) {
				return nil, fmt.Errorf("center %s: operator #%d needs a username and a password of 8+ characters", c.Code, j+1)
			}
			op.Role = strings.ToUpper(op.Role)
			if op.Role == "" {
				op.Role = "OPERATOR"
			}
			if op.Role != "OPERATOR" && op.Role != "ADMIN" {
				return nil, fmt.Errorf("center %s: unknown role %q", c.Code, op.Role)
			}
		}
	}
	return &f, nil
}

// LoadSeedFile reads a seed document from disk
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedFile(data)
}

// DemoSeed is used when no seed file is configured
// This is for development/testing only
func DemoSeed() *SeedFile {
	lat, lon := 12.9716, 77.5946
	return &SeedFile{Centers: []SeedCenter{{
		Code:              "DEMO",
		Name:              "Demo Service Center",
		Address:           "1 Main Road",
		Latitude:          &lat,
		Longitude:         &lon,
		AvgServiceMinutes: 15,
		Operators: []SeedOperator{
			{Username: "admin", Password: "admin123456", Role: "ADMIN"},
		},
	}}}
}

// SeedQueueData inserts centers and operators that do not exist yet
func SeedQueueData(db *gorm.DB, seed *SeedFile) error {
	for _, sc := range seed.Centers {
		center, err := seedCenter(db, sc)
		if err != nil {
			return err
		}
		for _, so := range sc.Operators {
			if err := seedOperator(db, center.ID, so); err != nil {
				return err
			}
		}
	}
	log.Println("✅ Queue data seeded successfully")
	return nil
}

func seedCenter(db *gorm.DB, sc SeedCenter) (*models.ServiceCenter, error) {
	var existing models.ServiceCenter
	err := db.Where("code = ?", sc.Code).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	center := models.ServiceCenter{
		Code:              sc.Code,
		Name:              sc.Name,
		Latitude:          sc.Latitude,
		Longitude:         sc.Longitude,
		AvgServiceMinutes: sc.AvgServiceMinutes,
		IsActive:          true,
	}
	if sc.Address != "" {
		center.Address = &sc.Address
	}
	if sc.Phone != "" {
		center.Phone = &sc.Phone
	}
	if err := db.Create(&center).Error; err != nil {
		return nil, err
	}
	log.Printf("   Created center: %s", center.Code)
	return &center, nil
}

func seedOperator(db *gorm.DB, centerID uint, so SeedOperator) error {
	var count int64
	db.Model(&models.Operator{}).Where("username = ?", so.Username).Count(&count)
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash(so.Password)
	if err != nil {
		return err
	}
	op := models.Operator{
		Username: so.Username,
		Password: hashed,
		CenterID: centerID,
		Role:     so.Role,
		IsActive: true,
	}
	if err := db.Create(&op).Error; err != nil {
		return err
	}
	log.Printf("   Created operator: %s (%s)", op.Username, op.Role)
	return nil
}
