package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shiftly-dev/shiftly/backend/internal/config"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
	"github.com/shiftly-dev/shiftly/backend/internal/seed"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var managerID string
	var file string

	flag.IntVar(&op, "op", 0, "operation (1: random bosses, 2: random employees, 3: random shifts for a manager, 4: random applications, 5: import shifts from CSV)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.StringVar(&managerID, "manager-id", "", "owner of the inserted shifts (ops 3 and 5)")
	flag.StringVar(&file, "file", "", "CSV file to import (op 5)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repo := repository.NewRepository(cfg, dbpool)
	ctx = context.Background()

	switch op {
	case 0:
		logger.Error("no operation given")
	case 1, 2:
		if n <= 0 {
			logger.Error("n must be positive")
			return
		}

		role := domain.RoleBoss
		if op == 2 {
			role = domain.RoleEmployee
		}

		// one hash for the whole batch; seeded users share the password
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), cfg.Auth.BcryptCost)
		if err != nil {
			logger.Error("failed to hash password", "error", err)
			return
		}

		users := seed.Users(ctx, repo, n, role, string(hash), cfg.Email.UserDomain)
		logger.Info("inserted users", slog.Int("count", len(users)), slog.String("role", string(role)))
	case 3, 5:
		manager, err := loadManager(ctx, repo, managerID)
		if err != nil {
			logger.Error("invalid manager", "manager_id", managerID, "error", err)
			return
		}

		if op == 3 {
			shifts := seed.Shifts(ctx, repo, manager, n)
			logger.Info("inserted shifts", slog.Int("count", len(shifts)))
			return
		}

		f, err := os.Open(file)
		if err != nil {
			logger.Error("failed to open file", "error", err)
			return
		}
		defer f.Close()

		cnt, err := seed.ImportShifts(ctx, repo, manager, f)
		if err != nil {
			logger.Error("failed to import shifts", "inserted", cnt, "error", err)
			return
		}
		logger.Info("imported shifts", slog.Int("count", cnt))
	case 4:
		employees, err := repo.ListUsers(ctx, false)
		if err != nil {
			logger.Error("failed to list employees", "error", err)
			return
		}

		cnt := seed.Applications(ctx, repo, employees)
		logger.Info("inserted applications", slog.Int("count", cnt))
	default:
		logger.Error("unknown operation", slog.Int("op", op))
	}
}

func loadManager(ctx context.Context, repo *repository.Repository, id string) (*domain.User, error) {
	managerID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	manager, err := repo.GetUserByID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if manager.Role != domain.RoleBoss {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "user is not a BOSS")
	}

	return manager, nil
}
