package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
	"github.com/shiftly-dev/shiftly/backend/internal/utils"
)

// ShiftColumns are the columns a shift import file must carry, in any order.
// pay and status may be left empty; an empty status means OPEN.
var ShiftColumns = []string{"business", "roleName", "date", "startTime", "endTime", "pay", "status"}

// Users inserts n random users with the given role, all sharing passwordHash.
// Usernames that happen to collide are skipped. It returns the inserted users.
func Users(ctx context.Context, r repository.Store, n int, role domain.Role, passwordHash, emailDomain string) []*domain.User {
	users := make([]*domain.User, 0, n)
	for i := 0; i < n; i++ {
		user := utils.GenerateRandomUser(passwordHash, emailDomain, role)
		if err := r.CreateUser(ctx, user); err != nil {
			slog.Error("failed to insert user", "username", user.Username, "error", err)
			continue
		}
		users = append(users, user)
	}
	return users
}

// Shifts inserts n random OPEN shifts owned by manager.
func Shifts(ctx context.Context, r repository.Store, manager *domain.User, n int) []*domain.Shift {
	shifts := make([]*domain.Shift, 0, n)
	today := time.Now()
	for i := 0; i < n; i++ {
		shift := utils.GenerateRandomShift(manager, today)
		if err := r.CreateShift(ctx, shift); err != nil {
			slog.Error("failed to insert shift", "error", err)
			continue
		}
		shifts = append(shifts, shift)
	}
	return shifts
}

// Applications lets every employee apply to a random subset of the OPEN shifts,
// using the same locked upsert as the API. It returns the number of applications.
func Applications(ctx context.Context, r repository.Store, employees []*domain.User) int {
	cnt := 0
	for _, employee := range employees {
		shifts, err := r.ListOpenShifts(ctx, employee.ID)
		if err != nil {
			slog.Error("failed to list open shifts", "error", err)
			return cnt
		}

		for _, shift := range shifts {
			if rand.Intn(3) != 0 {
				continue
			}

			err := r.InTx(ctx, func(tx repository.Tx) error {
				locked, err := tx.LockShift(ctx, shift.ID, false)
				if err != nil {
					return err
				}
				if locked.Status != domain.ShiftStatusOpen {
					return nil
				}
				_, err = tx.UpsertApplication(ctx, locked.ID, employee.ID)
				return err
			})
			if err != nil {
				slog.Error("failed to insert application", "shift_id", shift.ID, "error", err)
				continue
			}
			cnt++
		}
	}
	return cnt
}

// ImportShifts reads shifts for manager from a CSV file whose header names the
// ShiftColumns. Rows are validated the same way the API validates a new shift;
// an invalid row aborts the import with its line number.
func ImportShifts(ctx context.Context, r repository.Store, manager *domain.User, in io.Reader) (int, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	for _, column := range ShiftColumns {
		if !slices.Contains(headers, column) {
			return 0, fmt.Errorf("missing column %q", column)
		}
	}

	var shifts []*domain.Shift
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("line %d: %w", line, err)
		}

		record := make(map[string]string, len(row))
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		shift, err := shiftFromRecord(manager, record)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		shifts = append(shifts, shift)
	}

	for i, shift := range shifts {
		if err := r.CreateShift(ctx, shift); err != nil {
			return i, err
		}
	}

	return len(shifts), nil
}

func shiftFromRecord(manager *domain.User, record map[string]string) (*domain.Shift, error) {
	if record["business"] == "" || record["roleName"] == "" {
		return nil, errors.New("business and roleName are required")
	}

	date, err := domain.ParseDate(record["date"])
	if err != nil {
		return nil, err
	}
	startTime, endTime, err := utils.NormalizeShiftTimes(record["startTime"], record["endTime"])
	if err != nil {
		return nil, err
	}

	// imported shifts go to the marketplace unless told otherwise
	status := domain.ShiftStatusOpen
	if s := domain.ShiftStatus(record["status"]); s != "" {
		if !s.Valid() {
			return nil, fmt.Errorf("invalid status %q", s)
		}
		status = s
	}

	shift := &domain.Shift{
		ManagerID: manager.ID,
		Business:  record["business"],
		RoleName:  record["roleName"],
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    status,
	}
	if pay := record["pay"]; pay != "" {
		shift.Pay = &pay
	}

	return shift, nil
}
