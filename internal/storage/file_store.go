package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/smarttransit/route-ledger/internal/models"
)

// File names inside the data directory
const (
	UsersFile    = "users.txt"
	SeatsFile    = "seats.txt"
	BookingsFile = "bookings.txt"
)

const maxLineBytes = 4 * 1024 * 1024

// FileStore keeps each collection in a pipe-delimited text file
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// LoadUsers reads users.txt
func (s *FileStore) LoadUsers(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	err := s.readLines(ctx, UsersFile, func(line string) {
		if u, ok := DecodeUser(line); ok {
			users = append(users, u)
		}
	})
	return users, err
}

// SaveUsers overwrites users.txt
func (s *FileStore) SaveUsers(ctx context.Context, users []*models.User) error {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, EncodeUser(u))
	}
	return s.writeLines(ctx, UsersFile, lines)
}

// LoadSeats reads seats.txt
func (s *FileStore) LoadSeats(ctx context.Context) ([]*models.Seat, error) {
	seats := []*models.Seat{}
	err := s.readLines(ctx, SeatsFile, func(line string) {
		if seat, ok := DecodeSeat(line); ok {
			seats = append(seats, seat)
		}
	})
	return seats, err
}

// SaveSeats overwrites seats.txt
func (s *FileStore) SaveSeats(ctx context.Context, seats []*models.Seat) error {
	lines := make([]string, 0, len(seats))
	for _, seat := range seats {
		lines = append(lines, EncodeSeat(seat))
	}
	return s.writeLines(ctx, SeatsFile, lines)
}

// LoadBookings reads bookings.txt
func (s *FileStore) LoadBookings(ctx context.Context) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	err := s.readLines(ctx, BookingsFile, func(line string) {
		if b, ok := DecodeBooking(line); ok {
			bookings = append(bookings, b)
		}
	})
	return bookings, err
}

// SaveBookings overwrites bookings.txt
func (s *FileStore) SaveBookings(ctx context.Context, bookings []*models.Booking) error {
	lines := make([]string, 0, len(bookings))
	for _, b := range bookings {
		lines = append(lines, EncodeBooking(b))
	}
	return s.writeLines(ctx, BookingsFile, lines)
}

// readLines calls fn for every non-blank line. A missing file is not an error.
func (s *FileStore) readLines(ctx context.Context, name string, fn func(string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	return nil
}

// writeLines replaces the file through a temp file and rename so readers
// never observe a half-written collection
func (s *FileStore) writeLines(ctx context.Context, name string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
