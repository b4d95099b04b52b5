package importer

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yigit/schoolbook/internal/pkg/auth"
	"github.com/yigit/schoolbook/internal/pkg/spreadsheet"
)

// Hasher turns a plain password into its stored form
type Hasher func(password string) (string, error)

// Passwords holds one hash per sheet row, indexed like Sheet.Rows. Rows whose
// password would fail validation have no entry.
type Passwords []string

// HashPasswords hashes column for every row up front, so the import
// transaction does no bcrypt work. At most workers hashes run at once; zero
// means one per CPU.
func HashPasswords(ctx context.Context, sheet *spreadsheet.Sheet, column string, hash Hasher, workers int) (Passwords, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make(Passwords, len(sheet.Rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range sheet.Rows {
		password := sheet.Cell(i, column)
		if password == "" || auth.PasswordTooShort(password) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := hash(password)
			if err != nil {
				return fmt.Errorf("failed to hash password of row %d: %w", i+2, err)
			}
			out[i] = h
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// a hash that finished after the deadline is no use to the caller
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookup returns the hash made for rec, hashing inline if there is none
func (p Passwords) lookup(rec Record, column string) (string, error) {
	if rec.Index < len(p) && p[rec.Index] != "" {
		return p[rec.Index], nil
	}
	hash, err := auth.HashPassword(rec.Get(column))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}
