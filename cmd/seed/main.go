package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/pkg/config"
	"github.com/inkfest/inkfest-api/pkg/database"
	"github.com/inkfest/inkfest-api/pkg/logger"
)

// Loads a small demo festival: an admin, judges, participants, a two-day
// schedule with judging contests, one panel assignment and one sample score.
// Existing data is wiped first, in reverse dependency order.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seed(ctx, db); err != nil {
		logr.Fatal("seeding failed", zap.Error(err))
	}
	logr.Info("demo data loaded")
}

func seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	wipeOrder := []string{
		"export_jobs", "scores", "winners", "participations", "judge_nominations",
		"time_slots", "nomination_template_criteria", "criteria",
		"nomination_templates", "event_days", "festivals", "refresh_tokens", "users",
	}
	for _, table := range wipeOrder {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	admin := newUser("000001", models.RoleAdmin, nil)
	pro1 := newUser("100001", models.RoleParticipant, categoryPtr(models.CategoryPro))
	pro2 := newUser("100002", models.RoleParticipant, categoryPtr(models.CategoryPro))
	junior := newUser("100003", models.RoleParticipant, categoryPtr(models.CategoryJunior))
	judge1 := newUser("200001", models.RoleJudge, nil)
	judge2 := newUser("200002", models.RoleJudge, nil)
	for _, u := range []models.User{admin, pro1, pro2, junior, judge1, judge2} {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO users (id, code, nickname, telegram_id, role, experience_category)
			VALUES (:id, :code, :nickname, :telegram_id, :role, :experience_category)`, u); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Code, err)
		}
	}

	festivalID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO festivals (id, name, start_date, end_date)
		VALUES ($1, $2, $3, $4)`,
		festivalID, "Inkfest 2026", date(2026, 7, 10), date(2026, 7, 12)); err != nil {
		return fmt.Errorf("insert festival: %w", err)
	}

	day1 := uuid.NewString()
	day2 := uuid.NewString()
	dayRows := []struct {
		id    string
		date  time.Time
		order int
	}{
		{day1, date(2026, 7, 10), 1},
		{day2, date(2026, 7, 11), 2},
	}
	for _, d := range dayRows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO event_days (id, festival_id, date, day_order)
			VALUES ($1, $2, $3, $4)`, d.id, festivalID, d.date, d.order); err != nil {
			return fmt.Errorf("insert day %d: %w", d.order, err)
		}
	}

	techID := uuid.NewString()
	compID := uuid.NewString()
	origID := uuid.NewString()
	criteria := []struct {
		id    string
		name  string
		order int
	}{
		{techID, "Technique", 1},
		{compID, "Composition", 2},
		{origID, "Originality", 3},
	}
	for _, c := range criteria {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO criteria (id, name, max_score, sort_order)
			VALUES ($1, $2, 10, $3)`, c.id, c.name, c.order); err != nil {
			return fmt.Errorf("insert criterion %s: %w", c.name, err)
		}
	}

	blackGrayID := uuid.NewString()
	colorID := uuid.NewString()
	orientalID := uuid.NewString()
	templates := []struct {
		id    string
		name  string
		ptype models.ParticipantType
	}{
		{blackGrayID, "Best Black and Gray", models.ParticipantTypeBoth},
		{colorID, "Best Color", models.ParticipantTypePro},
		{orientalID, "Oriental", models.ParticipantTypeBoth},
	}
	for _, t := range templates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nomination_templates (id, name, participant_type)
			VALUES ($1, $2, $3)`, t.id, t.name, t.ptype); err != nil {
			return fmt.Errorf("insert template %s: %w", t.name, err)
		}
		for _, c := range criteria {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO nomination_template_criteria (nomination_template_id, criterion_id)
				VALUES ($1, $2)`, t.id, c.id); err != nil {
				return fmt.Errorf("link criterion to %s: %w", t.name, err)
			}
		}
	}

	bwFresh := uuid.NewString()
	colorFresh := uuid.NewString()
	bwHealed := uuid.NewString()
	slotInsert := `
		INSERT INTO time_slots (id, day_id, start_time, end_time, slot_order, type,
			nomination_template_id, category, status, zone, event_title)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	contests := []struct {
		id         string
		dayID      string
		start, end time.Time
		order      int
		templateID string
		category   models.ContestCategory
		zone       string
	}{
		{bwFresh, day1, at(2026, 7, 10, 10), at(2026, 7, 10, 12), 1, blackGrayID, models.CategoryFresh, "A"},
		{colorFresh, day1, at(2026, 7, 10, 13), at(2026, 7, 10, 15), 3, colorID, models.CategoryFresh, "B"},
		{bwHealed, day2, at(2026, 7, 11, 10), at(2026, 7, 11, 12), 1, blackGrayID, models.CategoryHealed, "A"},
	}
	for _, s := range contests {
		if _, err := tx.ExecContext(ctx, slotInsert,
			s.id, s.dayID, s.start, s.end, s.order, models.SlotJudging,
			s.templateID, s.category, models.StatusPending, s.zone, nil); err != nil {
			return fmt.Errorf("insert contest slot: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, slotInsert,
		uuid.NewString(), day1, at(2026, 7, 10, 12), at(2026, 7, 10, 13), 2, models.SlotEvent,
		nil, nil, nil, nil, "Lunch break"); err != nil {
		return fmt.Errorf("insert event slot: %w", err)
	}

	p1 := uuid.NewString()
	participations := []struct {
		id     string
		userID string
		slotID string
	}{
		{p1, pro1.ID, bwFresh},
		{uuid.NewString(), junior.ID, bwFresh},
		{uuid.NewString(), pro2.ID, colorFresh},
		{uuid.NewString(), pro1.ID, bwHealed},
	}
	for _, p := range participations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO participations (id, user_id, time_slot_id, entry_number)
			VALUES ($1, $2, $3, 1)`, p.id, p.userID, p.slotID); err != nil {
			return fmt.Errorf("insert participation: %w", err)
		}
	}

	panels := []struct {
		judgeID string
		slotID  string
	}{
		{judge1.ID, bwFresh},
		{judge2.ID, bwFresh},
		{judge1.ID, colorFresh},
	}
	for _, a := range panels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO judge_nominations (id, judge_id, time_slot_id)
			VALUES ($1, $2, $3)`, uuid.NewString(), a.judgeID, a.slotID); err != nil {
			return fmt.Errorf("insert judge assignment: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scores (id, judge_id, participation_id, criterion_id, value)
		VALUES ($1, $2, $3, $4, 8)`, uuid.NewString(), judge1.ID, p1, techID); err != nil {
		return fmt.Errorf("insert sample score: %w", err)
	}

	return tx.Commit()
}

func newUser(code string, role models.UserRole, category *models.ExperienceCategory) models.User {
	return models.User{
		ID:                 uuid.NewString(),
		Code:               code,
		Role:               role,
		ExperienceCategory: category,
	}
}

func categoryPtr(c models.ExperienceCategory) *models.ExperienceCategory {
	return &c
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
