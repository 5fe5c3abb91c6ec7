package config

import (
	"log"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db       *gorm.DB
	seedFile string
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, seedFile string) *Seeder {
	return &Seeder{db: db, seedFile: seedFile}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	seed := DemoSeed()
	if s.seedFile != "" {
		loaded, err := LoadSeedFile(s.seedFile)
		if err != nil {
			return err
		}
		seed = loaded
		log.Printf("🌱 Seeding %d centers from %s", len(seed.Centers), s.seedFile)
	} else {
		var count int64
		s.db.Table("service_centers").Count(&count)
		if count > 0 {
			log.Println("✅ Database seeding skipped (centers exist)")
			return nil
		}
		log.Println("⚠️ SEED_CENTERS_FILE not set, creating demo center")
	}

	if err := SeedQueueData(s.db, seed); err != nil {
		log.Printf("⚠️ Queue seeder failed: %v", err)
		return err
	}

	log.Println("✅ Database seeding completed")
	return nil
}
