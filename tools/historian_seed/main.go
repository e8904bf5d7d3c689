package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dstech-dashboard/internal/analytics/infrastructure/sqlstore"
	"dstech-dashboard/internal/platform/database"
	"dstech-dashboard/internal/platform/logging"
)

type config struct {
	driver    string
	dsn       string
	timezone  string
	startDate string
	days      int
	clients   int
	seed      int64
	alarms    int
}

var alarmCatalogue = []struct {
	tag      string
	message  string
	area     string
	priority int
	limit    float64
}{
	{"TUN_TEMP_HI", "Temperatura alta no túnel", "Tunel", 1, 90},
	{"PRENSA_PRESS", "Pressão hidráulica baixa na prensa", "Prensa", 2, 180},
	{"SEC01_PORTA", "Porta da secadora 01 aberta", "Secadoras", 3, 0},
	{"QUIM_NIVEL_Q3", "Nível baixo de químico Q3", "Quimicos", 2, 15},
	{"AGUA_VAZAO", "Vazão de água fora da faixa", "Utilidades", 4, 12},
	{"ESTEIRA_PARADA", "Esteira de carga parada", "Carga", 5, 0},
}

func main() {
	cfg := parseConfig()
	logger, err := logging.NewLogger("info")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.dsn == "" {
		logger.Fatal("DATABASE_URL or -dsn is required")
	}
	if cfg.days <= 0 || cfg.clients <= 0 {
		logger.Fatal("days and clients must be > 0")
	}
	loc, err := time.LoadLocation(cfg.timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}
	start, err := parseStartDate(cfg.startDate, loc)
	if err != nil {
		logger.Fatal("invalid start-date", zap.Error(err))
	}

	ctx := context.Background()
	db, dialect, err := database.Open(ctx, cfg.driver, cfg.dsn, database.Pool{})
	if err != nil {
		logger.Fatal("open historian", zap.Error(err))
	}
	defer db.Close()

	if dialect == database.SQLite {
		if err := sqlstore.EnsureSQLiteSchema(ctx, db); err != nil {
			logger.Fatal("historian schema", zap.Error(err))
		}
	}

	seeder := &seeder{db: db, dialect: dialect, rnd: rand.New(rand.NewSource(cfg.seed)), clients: cfg.clients}
	logger.Info("seeding historian",
		zap.String("driver", dialect.Driver()),
		zap.Time("start", start),
		zap.Int("days", cfg.days),
		zap.Int("clients", cfg.clients),
	)
	for day := 0; day < cfg.days; day++ {
		dayStart := start.AddDate(0, 0, day)
		if err := seeder.seedDay(ctx, dayStart, cfg.alarms); err != nil {
			logger.Fatal("seed day", zap.Time("day", dayStart), zap.Error(err))
		}
	}
	logger.Info("historian seed completed", zap.Int("alarm_ids", seeder.alarmID))
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.driver, "driver", envOrDefault("DB_DRIVER", "sqlite3"), "database driver (pgx or sqlite3)")
	flag.StringVar(&cfg.dsn, "dsn", envOrDefault("DATABASE_URL", ""), "historian DSN")
	flag.StringVar(&cfg.timezone, "timezone", envOrDefault("TIMEZONE", "America/Sao_Paulo"), "plant time zone")
	flag.StringVar(&cfg.startDate, "start-date", envOrDefault("START_DATE", ""), "first day (YYYY-MM-DD)")
	flag.IntVar(&cfg.days, "days", envOrInt("DAYS", 14), "number of days to seed")
	flag.IntVar(&cfg.clients, "clients", envOrInt("CLIENTS", 6), "number of laundry clients")
	flag.Int64Var(&cfg.seed, "seed", int64(envOrInt("SEED", 1)), "random seed")
	flag.IntVar(&cfg.alarms, "alarms-per-day", envOrInt("ALARMS_PER_DAY", 12), "alarm events per day")
	flag.Parse()
	return cfg
}

func parseStartDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -13), nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

type seeder struct {
	db      *sql.DB
	dialect database.Dialect
	rnd     *rand.Rand
	clients int
	alarmID int
}

func (s *seeder) seedDay(ctx context.Context, dayStart time.Time, alarms int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := s.seedHours(ctx, tx, dayStart); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := s.seedLoads(ctx, tx, dayStart); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := s.seedAlarms(ctx, tx, dayStart, alarms); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// seedHours writes hourly production, chemical and status rows for the
// two shifts between 06:00 and 22:00.
func (s *seeder) seedHours(ctx context.Context, tx *sql.Tx, dayStart time.Time) error {
	production, err := tx.PrepareContext(ctx, s.dialect.Rebind(
		`INSERT INTO "Rel_Diario" ("Time_Stamp", "C0", "C1", "C2", "C3", "C4", "C5") VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer production.Close()
	chemicals, err := tx.PrepareContext(ctx, s.dialect.Rebind(
		`INSERT INTO "Rel_Quimico" ("Time_Stamp", "Q1", "Q2", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8", "Q9") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer chemicals.Close()
	status, err := tx.PrepareContext(ctx, s.dialect.Rebind(
		`INSERT INTO "Sts_Dados" ("Time_Stamp", "D1", "D2", "D3", "D4") VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer status.Close()

	var water, kg float64
	var batches int
	for hour := 6; hour < 22; hour++ {
		ts := dayStart.Add(time.Duration(hour) * time.Hour)
		client := 1 + s.rnd.Intn(s.clients)
		downtime := float64(s.rnd.Intn(12))
		minutes := 60 - downtime
		hourWater := round2(2 + s.rnd.Float64()*3)
		hourKg := round2(minutes * (14 + s.rnd.Float64()*6))
		if _, err := production.ExecContext(ctx, ts, downtime, minutes, hourWater, 0, hourKg, client); err != nil {
			return err
		}

		args := []any{ts}
		for channel := 0; channel < 9; channel++ {
			args = append(args, float64(200+s.rnd.Intn(1800)))
		}
		if _, err := chemicals.ExecContext(ctx, args...); err != nil {
			return err
		}

		water += hourWater
		kg += hourKg
		batches += 2 + s.rnd.Intn(3)
		if _, err := status.ExecContext(ctx, ts.Add(59*time.Minute), round2(water), batches, round2(kg), client); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedLoads(ctx context.Context, tx *sql.Tx, dayStart time.Time) error {
	stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(
		`INSERT INTO "Rel_Carga" ("Time_Stamp", "C0", "C1", "C2", "C3") VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	loads := 20 + s.rnd.Intn(20)
	for i := 0; i < loads; i++ {
		ts := dayStart.Add(6*time.Hour + time.Duration(s.rnd.Intn(16*60))*time.Minute)
		program := 1 + s.rnd.Intn(8)
		client := 1 + s.rnd.Intn(s.clients)
		weight := round2(40 + s.rnd.Float64()*80)
		water := round2(weight * (0.008 + s.rnd.Float64()*0.004))
		if _, err := stmt.ExecContext(ctx, ts, program, client, weight, water); err != nil {
			return err
		}
	}
	return nil
}

// seedAlarms writes alarm events; roughly one in six on the newest hours
// stays open without a normalization time.
func (s *seeder) seedAlarms(ctx context.Context, tx *sql.Tx, dayStart time.Time, count int) error {
	stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(`
INSERT INTO "ALARMHISTORY" (
	"Al_ID", "Al_Tag", "Al_Message", "Al_Start_Time", "Al_Norm_Time",
	"Al_Priority", "Al_Selection", "Al_Value", "Al_Limit"
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		def := alarmCatalogue[s.rnd.Intn(len(alarmCatalogue))]
		s.alarmID++
		startTime := dayStart.Add(6*time.Hour + time.Duration(s.rnd.Intn(16*3600))*time.Second)
		var norm any
		if s.rnd.Intn(6) != 0 {
			norm = startTime.Add(time.Duration(30+s.rnd.Intn(1800)) * time.Second)
		}
		value := round2(def.limit * (1 + s.rnd.Float64()*0.2))
		if _, err := stmt.ExecContext(ctx, s.alarmID, def.tag, def.message, startTime, norm, def.priority, def.area, value, def.limit); err != nil {
			return err
		}
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
