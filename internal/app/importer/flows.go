package importer

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/auth"
	"github.com/yigit/schoolbook/internal/pkg/validation"
)

// Required columns per flow
var (
	SchoolColumns  = []string{"SchoolName", "SchoolCode", "AdminUsername", "AdminPassword"}
	StudentColumns = []string{"FullName", "AdmissionYear", "LoginUsername", "InitialPassword"}
	SubjectColumns = []string{"SubjectName"}
)

// parseYear accepts "2024" and the "2024.0" some spreadsheet tools emit
func parseYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, false
		}
		year = int(f)
	}
	if year < models.MinAdmissionYear || year > models.MaxAdmissionYear {
		return 0, false
	}
	return year, true
}

func schoolIDPtr(id int64) *int64 {
	return &id
}

func checkUsername(rec Record, column string) *RowError {
	if username := rec.Get(column); !validation.ValidUsername(username) {
		return invalidRow(rec.Row(), "%s '%s' must not contain spaces or '/'.", column, username)
	}
	return nil
}

// basesOf maps school codes to their admission number prefixes
func basesOf(codes keySet) keySet {
	bases := keySet{}
	for code := range codes {
		bases.add(models.SchoolCodeBase(code))
	}
	return bases
}

// SchoolFlow creates a school and its first admin per row. Two schools may
// not share a code base, since admission numbers are unique across schools.
type SchoolFlow struct {
	passwords                           Passwords
	codes, bases, usernames             keySet
	seenCodes, seenBases, seenUsernames keySet
}

// NewSchoolFlow creates a SchoolFlow. passwords may be nil, in which case
// each admin password is hashed as its row is staged.
func NewSchoolFlow(passwords Passwords) *SchoolFlow {
	return &SchoolFlow{
		passwords:     passwords,
		seenCodes:     keySet{},
		seenBases:     keySet{},
		seenUsernames: keySet{},
	}
}

func (f *SchoolFlow) Columns() []string { return SchoolColumns }

func (f *SchoolFlow) Prepare(ctx context.Context, tx *repositories.Store) error {
	codes, err := tx.Schools.Codes(ctx)
	if err != nil {
		return err
	}
	usernames, err := tx.Users.Usernames(ctx)
	if err != nil {
		return err
	}
	f.codes, f.bases, f.usernames = codes, basesOf(codes), usernames
	return nil
}

func (f *SchoolFlow) Validate(rec Record) *RowError {
	if rec.AnyBlank(SchoolColumns) {
		return blankRow(rec.Row(), "One or more cells are blank.")
	}
	code, username := rec.Get("SchoolCode"), rec.Get("AdminUsername")
	if !validation.ValidSchoolCode(code) {
		return invalidRow(rec.Row(), "SchoolCode '%s' must be %d-%d letters or digits, optionally followed by @suffix.",
			code, validation.SchoolCodeMinLength, validation.SchoolCodeMaxLength)
	}
	base := models.SchoolCodeBase(code)
	if f.codes.has(code) || f.seenCodes.has(code) {
		return duplicateRow(rec.Row(), "SchoolCode '%s' is already taken.", code)
	}
	if f.bases.has(base) || f.seenBases.has(base) {
		return duplicateRow(rec.Row(), "SchoolCode '%s' uses the prefix '%s' of another school.", code, base)
	}
	if rowErr := checkUsername(rec, "AdminUsername"); rowErr != nil {
		return rowErr
	}
	if f.usernames.has(username) || f.seenUsernames.has(username) {
		return duplicateRow(rec.Row(), "AdminUsername '%s' is already taken.", username)
	}
	if auth.PasswordTooShort(rec.Get("AdminPassword")) {
		return invalidRow(rec.Row(), "Password for '%s' must be at least %d characters.", username, auth.MinPasswordLength)
	}
	return nil
}

func (f *SchoolFlow) Stage(ctx context.Context, tx *repositories.Store, rec Record) error {
	school := &models.School{Name: rec.Get("SchoolName"), SchoolCode: rec.Get("SchoolCode")}
	if err := tx.Schools.Create(ctx, school); err != nil {
		return err
	}

	hash, err := f.passwords.lookup(rec, "AdminPassword")
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     rec.Get("AdminUsername"),
		PasswordHash: hash,
		Role:         models.RoleSchoolAdmin,
		SchoolID:     schoolIDPtr(school.ID),
	}
	if err := tx.Users.Create(ctx, user); err != nil {
		return err
	}

	return tx.SchoolAdmins.Create(ctx, &models.SchoolAdmin{
		UserID:   user.ID,
		SchoolID: school.ID,
		FullName: user.Username,
	})
}

func (f *SchoolFlow) Accept(rec Record) {
	f.seenCodes.add(rec.Get("SchoolCode"))
	f.seenBases.add(models.SchoolCodeBase(rec.Get("SchoolCode")))
	f.seenUsernames.add(rec.Get("AdminUsername"))
}

func (f *SchoolFlow) Finish(context.Context, *repositories.Store) error { return nil }

// StudentFlow admits students into one school. Admission numbers come from a
// running counter seeded once from the school's locked sequence.
type StudentFlow struct {
	school    *models.School
	passwords Passwords
	usernames keySet
	seen      keySet
	seq       int
	seeded    int
}

// NewStudentFlow creates a StudentFlow for school. passwords may be nil.
func NewStudentFlow(school *models.School, passwords Passwords) *StudentFlow {
	return &StudentFlow{school: school, passwords: passwords, seen: keySet{}}
}

func (f *StudentFlow) Columns() []string { return StudentColumns }

func (f *StudentFlow) Prepare(ctx context.Context, tx *repositories.Store) error {
	seq, err := tx.Schools.LockSequence(ctx, f.school.ID)
	if err != nil {
		return err
	}
	usernames, err := tx.Users.Usernames(ctx)
	if err != nil {
		return err
	}
	f.seq, f.seeded, f.usernames = seq, seq, usernames
	return nil
}

func (f *StudentFlow) Validate(rec Record) *RowError {
	if rec.AnyBlank(StudentColumns) {
		return blankRow(rec.Row(), "One or more cells are blank.")
	}
	if _, ok := parseYear(rec.Get("AdmissionYear")); !ok {
		return invalidRow(rec.Row(), "'AdmissionYear' must be a 4-digit number (e.g., 2025).")
	}
	if rowErr := checkUsername(rec, "LoginUsername"); rowErr != nil {
		return rowErr
	}
	username := rec.Get("LoginUsername")
	if f.usernames.has(username) || f.seen.has(username) {
		return duplicateRow(rec.Row(), "Username '%s' is already taken.", username)
	}
	if auth.PasswordTooShort(rec.Get("InitialPassword")) {
		return invalidRow(rec.Row(), "Password for '%s' must be at least %d characters.", username, auth.MinPasswordLength)
	}
	return nil
}

func (f *StudentFlow) Stage(ctx context.Context, tx *repositories.Store, rec Record) error {
	year, _ := parseYear(rec.Get("AdmissionYear"))

	hash, err := f.passwords.lookup(rec, "InitialPassword")
	if err != nil {
		return err
	}
	user := &models.User{
		Username:     rec.Get("LoginUsername"),
		PasswordHash: hash,
		Role:         models.RoleStudent,
		SchoolID:     schoolIDPtr(f.school.ID),
	}
	if err := tx.Users.Create(ctx, user); err != nil {
		return err
	}

	return tx.Students.Create(ctx, &models.Student{
		UserID:          user.ID,
		SchoolID:        f.school.ID,
		FullName:        rec.Get("FullName"),
		AdmissionYear:   year,
		AdmissionNumber: models.AdmissionNumber(f.school.CodeBase(), f.seq+1, year),
	})
}

func (f *StudentFlow) Accept(rec Record) {
	f.seq++
	f.seen.add(rec.Get("LoginUsername"))
}

func (f *StudentFlow) Finish(ctx context.Context, tx *repositories.Store) error {
	if f.seq == f.seeded {
		return nil
	}
	return tx.Schools.SetSequence(ctx, f.school.ID, f.seq)
}

// SubjectFlow adds subjects to one school. Names compare case-insensitively.
type SubjectFlow struct {
	schoolID int64
	names    keySet
	seen     keySet
}

// NewSubjectFlow creates a SubjectFlow for a school
func NewSubjectFlow(schoolID int64) *SubjectFlow {
	return &SubjectFlow{schoolID: schoolID, seen: keySet{}}
}

func (f *SubjectFlow) Columns() []string { return SubjectColumns }

func (f *SubjectFlow) Prepare(ctx context.Context, tx *repositories.Store) error {
	names, err := tx.Subjects.Names(ctx, f.schoolID)
	if err != nil {
		return err
	}
	f.names = names
	return nil
}

func (f *SubjectFlow) Validate(rec Record) *RowError {
	name := rec.Get("SubjectName")
	if name == "" {
		return blankRow(rec.Row(), "SubjectName is blank.")
	}
	key := strings.ToLower(name)
	if f.names.has(key) || f.seen.has(key) {
		return duplicateRow(rec.Row(), "Subject '%s' already exists.", name)
	}
	return nil
}

func (f *SubjectFlow) Stage(ctx context.Context, tx *repositories.Store, rec Record) error {
	return tx.Subjects.Create(ctx, &models.Subject{SchoolID: f.schoolID, Name: rec.Get("SubjectName")})
}

func (f *SubjectFlow) Accept(rec Record) {
	f.seen.add(strings.ToLower(rec.Get("SubjectName")))
}

func (f *SubjectFlow) Finish(context.Context, *repositories.Store) error { return nil }
