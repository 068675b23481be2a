package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/namsral/flag"

	"github.com/esheagren/pluck-sub000/internal/session"
	"github.com/esheagren/pluck-sub000/internal/srs"
)

// Config holds every recognized option. Values come from flags or the
// environment (NEW_CARDS_PER_DAY style), courtesy of namsral/flag.
type Config struct {
	// Scheduling.
	NewCardsPerDay         int
	EaseFloor              float64
	StartEase              float64
	HardMultiplier         float64
	EasyBonus              float64
	LapsePenalty           float64
	HardPenalty            float64
	EasyReward             float64
	LearningSteps          string // comma-separated durations, e.g. "1m,10m"
	GraduatingIntervalDays float64
	EasyIntervalDays       float64
	MaximumIntervalDays    float64
	RequeueGap             int

	// Server / storage.
	Addr           string
	DBURI          string
	SQLitePath     string
	MigrationsPath string
	LogLevel       string
}

// Load loads the configs from the given arguments.
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("pluck", flag.ContinueOnError)

	fs.IntVar(&c.NewCardsPerDay, "new-cards-per-day", 20, "daily cap on new cards entering review; 0 means unlimited")
	fs.Float64Var(&c.EaseFloor, "ease-floor", 1.3, "minimum ease factor")
	fs.Float64Var(&c.StartEase, "start-ease", 2.5, "ease factor assigned on a card's first review")
	fs.Float64Var(&c.HardMultiplier, "hard-multiplier", 1.2, "review-stage interval multiplier for Hard")
	fs.Float64Var(&c.EasyBonus, "easy-bonus", 1.3, "extra interval multiplier for Easy")
	fs.Float64Var(&c.LapsePenalty, "lapse-penalty", 0.2, "ease deduction on a lapse")
	fs.Float64Var(&c.HardPenalty, "hard-penalty", 0.15, "ease deduction on review-stage Hard")
	fs.Float64Var(&c.EasyReward, "easy-reward", 0.15, "ease increase on Easy")
	fs.StringVar(&c.LearningSteps, "learning-steps", "1m,10m", "comma-separated sub-day learning steps")
	fs.Float64Var(&c.GraduatingIntervalDays, "graduating-interval-days", 1, "interval on graduating the learning steps via Good")
	fs.Float64Var(&c.EasyIntervalDays, "easy-interval-days", 4, "interval on graduating the learning steps via Easy")
	fs.Float64Var(&c.MaximumIntervalDays, "maximum-interval-days", 36500, "cap on review intervals")
	fs.IntVar(&c.RequeueGap, "requeue-gap", 3, "minimum positions between a failed card and its same-sitting retry")

	fs.StringVar(&c.Addr, "addr", ":8280", "listen address for the review server")
	fs.StringVar(&c.DBURI, "dburi", "", "postgres connection URI; empty selects the sqlite store")
	fs.StringVar(&c.SQLitePath, "sqlite-path", "pluck.db", "path of the sqlite card store")
	fs.StringVar(&c.MigrationsPath, "migrations-path", "file://db/migrations", "golang-migrate source URL for the postgres store")
	fs.StringVar(&c.LogLevel, "log-level", "info", "log level")

	return fs.Parse(args)
}

// SchedulerOptions projects the numeric options into scheduler options.
func (c *Config) SchedulerOptions() (srs.Options, error) {
	steps, err := parseSteps(c.LearningSteps)
	if err != nil {
		return srs.Options{}, err
	}
	return srs.Options{
		EaseFloor:              c.EaseFloor,
		StartEase:              c.StartEase,
		HardMultiplier:         c.HardMultiplier,
		EasyBonus:              c.EasyBonus,
		LapsePenalty:           c.LapsePenalty,
		HardPenalty:            c.HardPenalty,
		EasyReward:             c.EasyReward,
		LearningSteps:          steps,
		GraduatingIntervalDays: c.GraduatingIntervalDays,
		EasyIntervalDays:       c.EasyIntervalDays,
		MaximumIntervalDays:    c.MaximumIntervalDays,
	}, nil
}

// SessionConfig projects the session-level options.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		NewCardsPerDay: c.NewCardsPerDay,
		RequeueGap:     c.RequeueGap,
	}
}

func parseSteps(s string) ([]time.Duration, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	steps := make([]time.Duration, len(parts))
	for i, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse learning step %q: %w", p, err)
		}
		steps[i] = d
	}
	return steps, nil
}
