package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fitleague/fitleague/internal/models"
	"github.com/fitleague/fitleague/pkg/config"
	"github.com/fitleague/fitleague/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}

func runMigrations(db *database.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.HealthProfile{},
		&models.PlayerPool{},
		&models.Workout{},
		&models.League{},
		&models.Season{},
		&models.Team{},
		&models.TeamMember{},
		&models.Game{},
		&models.ScoreEvent{},
		&models.GameSummary{},
		&models.Standing{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_workouts_user_duplicate ON workouts(user_id, is_duplicate)",
		"CREATE INDEX IF NOT EXISTS idx_games_season_week ON games(season_id, week_number)",
		"CREATE INDEX IF NOT EXISTS idx_score_events_user ON score_events(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_standings_season_position ON standings(season_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_team_members_user_status ON team_members(user_id, status)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func dropTables(db *database.DB) error {
	// Reverse dependency order.
	tables := []string{
		"game_summaries",
		"score_events",
		"standings",
		"games",
		"seasons",
		"team_members",
		"teams",
		"leagues",
		"workouts",
		"player_pool",
		"health_profiles",
		"users",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}

func seedData(db *database.DB) error {
	league := &models.League{Name: "FitLeague Demo"}
	if err := db.Create(league).Error; err != nil {
		return fmt.Errorf("failed to create league: %w", err)
	}

	users := []*models.User{
		{Username: "admin", Email: "admin@fitleague.dev", PasswordHash: "dev-only", Role: models.RoleAdmin},
		{Username: "alice", Email: "alice@fitleague.dev", PasswordHash: "dev-only"},
		{Username: "bob", Email: "bob@fitleague.dev", PasswordHash: "dev-only"},
		{Username: "carol", Email: "carol@fitleague.dev", PasswordHash: "dev-only"},
		{Username: "dave", Email: "dave@fitleague.dev", PasswordHash: "dev-only"},
	}
	for _, user := range users {
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Username, err)
		}
	}

	// Health profiles for the non-admin users.
	restingHRs := []int{55, 60, 62, 58}
	maxHRs := []int{192, 188, 185, 190}
	for i, user := range users[1:] {
		profile := &models.HealthProfile{
			UserID:    user.ID,
			Age:       25 + i*5,
			RestingHR: restingHRs[i],
			MaxHR:     maxHRs[i],
		}
		if err := db.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile for %s: %w", user.Username, err)
		}
	}

	teams := []*models.Team{
		{Name: "Morning Crew", Color: "#e74c3c", OwnerUserID: users[1].ID, LeagueID: league.ID},
		{Name: "Night Owls", Color: "#3498db", OwnerUserID: users[3].ID, LeagueID: league.ID},
	}
	for _, team := range teams {
		if err := db.Create(team).Error; err != nil {
			return fmt.Errorf("failed to create team %s: %w", team.Name, err)
		}
	}

	members := []*models.TeamMember{
		{TeamID: teams[0].ID, UserID: users[1].ID, Role: models.MemberRoleOwner, Status: models.MemberStatusActive, JoinedAt: time.Now().UTC()},
		{TeamID: teams[0].ID, UserID: users[2].ID, Role: models.MemberRoleMember, Status: models.MemberStatusActive, JoinedAt: time.Now().UTC()},
		{TeamID: teams[1].ID, UserID: users[3].ID, Role: models.MemberRoleOwner, Status: models.MemberStatusActive, JoinedAt: time.Now().UTC()},
		{TeamID: teams[1].ID, UserID: users[4].ID, Role: models.MemberRoleMember, Status: models.MemberStatusActive, JoinedAt: time.Now().UTC()},
	}
	for _, member := range members {
		if err := db.Create(member).Error; err != nil {
			return fmt.Errorf("failed to create team member: %w", err)
		}
	}

	logrus.Infof("Seeded league %q with %d users and %d teams", league.Name, len(users), len(teams))
	logrus.Info("Create a season via POST /api/v1/seasons to generate the schedule")
	return nil
}
