// Command main runs the database seeder for Ember.
package main

import (
	"context"
	"flag"
	"log"

	"ember/internal/config"
	"ember/internal/database"
	"ember/internal/repository"
	"ember/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 150, "Number of posts to create")
	numLikes := flag.Int("likes", 400, "Number of like toggles to perform")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, %d likes, clean=%v\n", *numUsers, *numPosts, *numLikes, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *shouldClean {
		if err := seed.ClearAll(db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	s := seed.NewSeeder(
		repository.NewGormPostStore(db),
		repository.NewGormLikeLedger(db),
		repository.NewGormUserStore(db),
	)

	ctx := context.Background()
	users, err := s.SeedUsers(ctx, *numUsers)
	if err != nil {
		log.Fatalf("❌ User seeding failed: %v", err)
	}
	posts, err := s.SeedPosts(ctx, users, *numPosts)
	if err != nil {
		log.Fatalf("❌ Post seeding failed: %v", err)
	}
	if err := s.SeedLikes(ctx, users, posts, *numLikes); err != nil {
		log.Fatalf("❌ Like seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
