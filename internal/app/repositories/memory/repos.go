package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/repositories"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

type schoolRow struct {
	models.School
	Seq int
}

type (
	userRow       = models.User
	adminRow      = models.SchoolAdmin
	teacherRow    = models.Teacher
	parentRow     = models.Parent
	studentRow    = models.Student
	subjectRow    = models.Subject
	gradeRow      = models.Grade
	attendanceRow = models.Attendance
	linkCodeRow   = models.StudentLinkCode
)

func (d *DB) read(fn func(t *tables)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.data)
}

func (d *DB) write(fn func(t *tables) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.data)
}

func ptr[T any](v T) *T { return &v }

// schools

type schoolRepo struct{ d *DB }

func (r *schoolRepo) Create(_ context.Context, school *models.School) error {
	if err := r.d.fail("schools.create", school); err != nil {
		return err
	}
	return r.d.write(func(t *tables) error {
		for _, s := range t.schools {
			if s.SchoolCode == school.SchoolCode {
				return apperrors.ErrSchoolCodeTaken
			}
			if s.CodeBase() == school.CodeBase() {
				return apperrors.ErrSchoolCodeBaseTaken
			}
		}
		school.ID = t.id()
		school.CreatedAt = time.Now()
		t.schools[school.ID] = schoolRow{School: *school}
		return nil
	})
}

func (r *schoolRepo) GetByID(_ context.Context, id int64) (*models.School, error) {
	var out *models.School
	r.d.read(func(t *tables) {
		if s, ok := t.schools[id]; ok {
			out = ptr(s.School)
		}
	})
	if out == nil {
		return nil, apperrors.ErrSchoolNotFound
	}
	return out, nil
}

func (r *schoolRepo) GetByCode(_ context.Context, code string) (*models.School, error) {
	var out *models.School
	r.d.read(func(t *tables) {
		for _, s := range t.schools {
			if s.SchoolCode == code {
				out = ptr(s.School)
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrSchoolNotFound
	}
	return out, nil
}

func (r *schoolRepo) List(_ context.Context) ([]*models.SchoolSummary, error) {
	out := []*models.SchoolSummary{}
	r.d.read(func(t *tables) {
		for _, s := range t.schools {
			sum := &models.SchoolSummary{School: s.School}
			for _, st := range t.students {
				if st.SchoolID == s.ID {
					sum.Students++
				}
			}
			for _, te := range t.teachers {
				if te.SchoolID == s.ID {
					sum.Teachers++
				}
			}
			out = append(out, sum)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *schoolRepo) Codes(_ context.Context) (map[string]struct{}, error) {
	set := map[string]struct{}{}
	r.d.read(func(t *tables) {
		for _, s := range t.schools {
			set[s.SchoolCode] = struct{}{}
		}
	})
	return set, nil
}

func (r *schoolRepo) LockSequence(_ context.Context, schoolID int64) (int, error) {
	seq, found := 0, false
	r.d.read(func(t *tables) {
		if s, ok := t.schools[schoolID]; ok {
			seq, found = s.Seq, true
		}
	})
	if !found {
		return 0, apperrors.ErrSchoolNotFound
	}
	return seq, nil
}

func (r *schoolRepo) SetSequence(_ context.Context, schoolID int64, seq int) error {
	return r.d.write(func(t *tables) error {
		s, ok := t.schools[schoolID]
		if !ok {
			return apperrors.ErrSchoolNotFound
		}
		if seq > s.Seq {
			s.Seq = seq
		}
		t.schools[schoolID] = s
		return nil
	})
}

func (r *schoolRepo) Stats(_ context.Context, schoolID int64) (*models.SchoolStats, error) {
	stats := &models.SchoolStats{}
	found := false
	r.d.read(func(t *tables) {
		_, found = t.schools[schoolID]
		for _, s := range t.students {
			if s.SchoolID == schoolID {
				stats.Students++
			}
		}
		for _, s := range t.teachers {
			if s.SchoolID == schoolID {
				stats.Teachers++
			}
		}
		for _, s := range t.subjects {
			if s.SchoolID == schoolID {
				stats.Subjects++
			}
		}
		for _, s := range t.parents {
			if s.SchoolID == schoolID {
				stats.Parents++
			}
		}
	})
	if !found {
		return nil, apperrors.ErrSchoolNotFound
	}
	return stats, nil
}

// users

type userRepo struct{ d *DB }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	if err := r.d.fail("users.create", user); err != nil {
		return err
	}
	return r.d.write(func(t *tables) error {
		for _, u := range t.users {
			if u.Username == user.Username {
				return apperrors.ErrUsernameTaken
			}
		}
		user.ID = t.id()
		user.CreatedAt = time.Now()
		t.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	var out *models.User
	r.d.read(func(t *tables) {
		if u, ok := t.users[id]; ok {
			out = ptr(u)
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	var out *models.User
	r.d.read(func(t *tables) {
		for _, u := range t.users {
			if u.Username == username {
				out = ptr(u)
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

func (r *userRepo) Usernames(_ context.Context) (map[string]struct{}, error) {
	set := map[string]struct{}{}
	r.d.read(func(t *tables) {
		for _, u := range t.users {
			set[u.Username] = struct{}{}
		}
	})
	return set, nil
}

func (r *userRepo) ExistsWithRole(_ context.Context, role models.RoleType) (bool, error) {
	exists := false
	r.d.read(func(t *tables) {
		for _, u := range t.users {
			if u.Role == role {
				exists = true
			}
		}
	})
	return exists, nil
}

// profiles

type adminRepo struct{ d *DB }

func (r *adminRepo) Create(_ context.Context, admin *models.SchoolAdmin) error {
	return r.d.write(func(t *tables) error {
		admin.ID = t.id()
		t.admins[admin.ID] = *admin
		return nil
	})
}

func (r *adminRepo) GetByUserID(_ context.Context, userID int64) (*models.SchoolAdmin, error) {
	var out *models.SchoolAdmin
	r.d.read(func(t *tables) {
		for _, a := range t.admins {
			if a.UserID == userID {
				out = ptr(a)
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

type teacherRepo struct{ d *DB }

func (r *teacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	return r.d.write(func(t *tables) error {
		teacher.ID = t.id()
		t.teachers[teacher.ID] = *teacher
		return nil
	})
}

func (r *teacherRepo) GetByUserID(_ context.Context, userID int64) (*models.Teacher, error) {
	var out *models.Teacher
	r.d.read(func(t *tables) {
		for _, te := range t.teachers {
			if te.UserID == userID {
				out = ptr(te)
				out.Username = t.users[te.UserID].Username
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

func (r *teacherRepo) ListBySchool(_ context.Context, schoolID int64) ([]*models.Teacher, error) {
	out := []*models.Teacher{}
	r.d.read(func(t *tables) {
		for _, te := range t.teachers {
			if te.SchoolID == schoolID {
				c := ptr(te)
				c.Username = t.users[te.UserID].Username
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type parentRepo struct{ d *DB }

func (r *parentRepo) Create(_ context.Context, parent *models.Parent) error {
	return r.d.write(func(t *tables) error {
		parent.ID = t.id()
		t.parents[parent.ID] = *parent
		return nil
	})
}

func (r *parentRepo) GetByUserID(_ context.Context, userID int64) (*models.Parent, error) {
	var out *models.Parent
	r.d.read(func(t *tables) {
		for _, p := range t.parents {
			if p.UserID == userID {
				out = ptr(p)
				out.Username = t.users[p.UserID].Username
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return out, nil
}

func (r *parentRepo) ListBySchool(_ context.Context, schoolID int64) ([]*models.Parent, error) {
	out := []*models.Parent{}
	r.d.read(func(t *tables) {
		for _, p := range t.parents {
			if p.SchoolID == schoolID {
				c := ptr(p)
				c.Username = t.users[p.UserID].Username
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *parentRepo) LinkStudent(_ context.Context, parentID, studentID int64) error {
	if err := r.d.fail("parents.link", parentLink{parentID, studentID}); err != nil {
		return err
	}
	return r.d.write(func(t *tables) error {
		t.links[parentLink{parentID, studentID}] = struct{}{}
		return nil
	})
}

func (r *parentRepo) IsLinked(_ context.Context, parentID, studentID int64) (bool, error) {
	linked := false
	r.d.read(func(t *tables) {
		_, linked = t.links[parentLink{parentID, studentID}]
	})
	return linked, nil
}

func (r *parentRepo) Children(_ context.Context, parentID int64) ([]*models.Student, error) {
	out := []*models.Student{}
	r.d.read(func(t *tables) {
		p, ok := t.parents[parentID]
		if !ok {
			return
		}
		for link := range t.links {
			if link.ParentID != parentID {
				continue
			}
			if s, ok := t.students[link.StudentID]; ok && s.SchoolID == p.SchoolID {
				out = append(out, ptr(s))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

// students

type studentRepo struct{ d *DB }

func (r *studentRepo) Create(_ context.Context, student *models.Student) error {
	if err := r.d.fail("students.create", student); err != nil {
		return err
	}
	return r.d.write(func(t *tables) error {
		for _, s := range t.students {
			if s.AdmissionNumber == student.AdmissionNumber {
				return apperrors.NewConflictError("admission number " + student.AdmissionNumber + " is already assigned")
			}
		}
		student.ID = t.id()
		row := *student
		row.Form, row.Username = 0, ""
		t.students[student.ID] = row
		return nil
	})
}

func (r *studentRepo) find(match func(s studentRow) bool) (*models.Student, error) {
	var out *models.Student
	r.d.read(func(t *tables) {
		for _, s := range t.students {
			if match(s) {
				out = ptr(s)
				out.Username = t.users[s.UserID].Username
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrStudentNotFound
	}
	return out, nil
}

func (r *studentRepo) GetByID(_ context.Context, schoolID, id int64) (*models.Student, error) {
	return r.find(func(s studentRow) bool { return s.ID == id && s.SchoolID == schoolID })
}

func (r *studentRepo) GetByUserID(_ context.Context, userID int64) (*models.Student, error) {
	return r.find(func(s studentRow) bool { return s.UserID == userID })
}

func (r *studentRepo) GetByAdmissionNumber(_ context.Context, schoolID int64, admissionNumber string) (*models.Student, error) {
	return r.find(func(s studentRow) bool { return s.AdmissionNumber == admissionNumber && s.SchoolID == schoolID })
}

func (r *studentRepo) List(_ context.Context, f repositories.StudentFilter) ([]*models.Student, int, error) {
	all := []*models.Student{}
	r.d.read(func(t *tables) {
		for _, s := range t.students {
			if s.SchoolID != f.SchoolID {
				continue
			}
			if f.YearFrom > 0 && s.AdmissionYear < f.YearFrom {
				continue
			}
			if f.YearTo > 0 && s.AdmissionYear > f.YearTo {
				continue
			}
			all = append(all, ptr(s))
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].AdmissionYear != all[j].AdmissionYear {
			return all[i].AdmissionYear > all[j].AdmissionYear
		}
		if all[i].FullName != all[j].FullName {
			return all[i].FullName < all[j].FullName
		}
		return all[i].ID < all[j].ID
	})

	total := len(all)
	if f.Limit > 0 {
		start := f.Offset
		if start > total {
			start = total
		}
		end := start + f.Limit
		if end > total {
			end = total
		}
		all = all[start:end]
	}
	return all, total, nil
}

// subjects

type subjectRepo struct{ d *DB }

func (r *subjectRepo) Create(_ context.Context, subject *models.Subject) error {
	if err := r.d.fail("subjects.create", subject); err != nil {
		return err
	}
	return r.d.write(func(t *tables) error {
		for _, s := range t.subjects {
			if s.SchoolID == subject.SchoolID && strings.EqualFold(s.Name, subject.Name) {
				return apperrors.ErrSubjectExists
			}
		}
		subject.ID = t.id()
		t.subjects[subject.ID] = *subject
		return nil
	})
}

func (r *subjectRepo) GetByID(_ context.Context, schoolID, id int64) (*models.Subject, error) {
	var out *models.Subject
	r.d.read(func(t *tables) {
		if s, ok := t.subjects[id]; ok && s.SchoolID == schoolID {
			out = ptr(s)
		}
	})
	if out == nil {
		return nil, apperrors.ErrSubjectNotFound
	}
	return out, nil
}

func (r *subjectRepo) ListBySchool(_ context.Context, schoolID int64) ([]*models.Subject, error) {
	out := []*models.Subject{}
	r.d.read(func(t *tables) {
		for _, s := range t.subjects {
			if s.SchoolID == schoolID {
				out = append(out, ptr(s))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *subjectRepo) Names(_ context.Context, schoolID int64) (map[string]struct{}, error) {
	set := map[string]struct{}{}
	r.d.read(func(t *tables) {
		for _, s := range t.subjects {
			if s.SchoolID == schoolID {
				set[strings.ToLower(s.Name)] = struct{}{}
			}
		}
	})
	return set, nil
}

// grades

type gradeRepo struct{ d *DB }

func (r *gradeRepo) Upsert(_ context.Context, grade *models.Grade) (bool, error) {
	created := true
	err := r.d.write(func(t *tables) error {
		for id, g := range t.grades {
			if g.StudentID == grade.StudentID && g.SubjectID == grade.SubjectID && g.Term == grade.Term {
				g.Marks, g.Letter, g.TeacherID, g.UpdatedAt = grade.Marks, grade.Letter, grade.TeacherID, time.Now()
				t.grades[id] = g
				grade.ID, grade.UpdatedAt = id, g.UpdatedAt
				created = false
				return nil
			}
		}
		grade.ID = t.id()
		grade.UpdatedAt = time.Now()
		row := *grade
		row.SubjectName, row.StudentName = "", ""
		t.grades[grade.ID] = row
		return nil
	})
	return created, err
}

func (r *gradeRepo) collect(match func(g gradeRow) bool) []*models.Grade {
	out := []*models.Grade{}
	r.d.read(func(t *tables) {
		for _, g := range t.grades {
			if match(g) {
				c := ptr(g)
				c.SubjectName = t.subjects[g.SubjectID].Name
				c.StudentName = t.students[g.StudentID].FullName
				out = append(out, c)
			}
		}
	})
	return out
}

func (r *gradeRepo) ListByStudent(_ context.Context, schoolID, studentID int64) ([]*models.Grade, error) {
	out := r.collect(func(g gradeRow) bool { return g.SchoolID == schoolID && g.StudentID == studentID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Term != out[j].Term {
			return out[i].Term < out[j].Term
		}
		return out[i].SubjectName < out[j].SubjectName
	})
	return out, nil
}

func (r *gradeRepo) ListByStudentTerm(_ context.Context, schoolID, studentID int64, term string) ([]*models.Grade, error) {
	out := r.collect(func(g gradeRow) bool {
		return g.SchoolID == schoolID && g.StudentID == studentID && g.Term == term
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectName < out[j].SubjectName })
	return out, nil
}

func (r *gradeRepo) RecentByTeacher(_ context.Context, schoolID, teacherID int64, limit int) ([]*models.Grade, error) {
	out := r.collect(func(g gradeRow) bool { return g.SchoolID == schoolID && g.TeacherID == teacherID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// attendance

type attendanceRepo struct{ d *DB }

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *attendanceRepo) Upsert(_ context.Context, record *models.Attendance) (bool, error) {
	if err := r.d.fail("attendance.upsert", record); err != nil {
		return false, err
	}
	created := true
	err := r.d.write(func(t *tables) error {
		for id, a := range t.attendance {
			if a.StudentID == record.StudentID && sameDay(a.Date, record.Date) {
				a.Status, a.TeacherID = record.Status, record.TeacherID
				t.attendance[id] = a
				record.ID = id
				created = false
				return nil
			}
		}
		record.ID = t.id()
		t.attendance[record.ID] = *record
		return nil
	})
	return created, err
}

func (r *attendanceRepo) StatusesOn(_ context.Context, schoolID int64, date time.Time) (map[int64]models.AttendanceStatus, error) {
	out := map[int64]models.AttendanceStatus{}
	r.d.read(func(t *tables) {
		for _, a := range t.attendance {
			if a.SchoolID == schoolID && sameDay(a.Date, date) {
				out[a.StudentID] = a.Status
			}
		}
	})
	return out, nil
}

func (r *attendanceRepo) ListByStudent(_ context.Context, schoolID, studentID int64) ([]*models.Attendance, error) {
	out := []*models.Attendance{}
	r.d.read(func(t *tables) {
		for _, a := range t.attendance {
			if a.SchoolID == schoolID && a.StudentID == studentID {
				out = append(out, ptr(a))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// link codes

type linkCodeRepo struct{ d *DB }

func (r *linkCodeRepo) Replace(_ context.Context, code *models.StudentLinkCode) error {
	return r.d.write(func(t *tables) error {
		for id, c := range t.linkCodes {
			if c.StudentID == code.StudentID {
				delete(t.linkCodes, id)
			}
		}
		code.ID = t.id()
		code.IsUsed = false
		code.CreatedAt = time.Now()
		t.linkCodes[code.ID] = *code
		return nil
	})
}

func (r *linkCodeRepo) GetByCodeForUpdate(_ context.Context, code string) (*models.StudentLinkCode, error) {
	var out *models.StudentLinkCode
	r.d.read(func(t *tables) {
		for _, c := range t.linkCodes {
			if c.Code == code {
				out = ptr(c)
			}
		}
	})
	if out == nil {
		return nil, apperrors.ErrInvalidLinkCode
	}
	return out, nil
}

func (r *linkCodeRepo) MarkUsed(_ context.Context, id int64) error {
	return r.d.write(func(t *tables) error {
		c, ok := t.linkCodes[id]
		if !ok || c.IsUsed {
			return apperrors.ErrInvalidLinkCode
		}
		c.IsUsed = true
		t.linkCodes[id] = c
		return nil
	})
}

// analytics

type analyticsRepo struct{ d *DB }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (r *analyticsRepo) StudentTrend(_ context.Context, schoolID, studentID int64) ([]models.TermAverage, error) {
	sums := map[string][2]int{}
	r.d.read(func(t *tables) {
		for _, g := range t.grades {
			if g.SchoolID == schoolID && g.StudentID == studentID {
				s := sums[g.Term]
				sums[g.Term] = [2]int{s[0] + g.Marks, s[1] + 1}
			}
		}
	})
	out := []models.TermAverage{}
	for term, s := range sums {
		out = append(out, models.TermAverage{Term: term, AverageMarks: round2(float64(s[0]) / float64(s[1]))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out, nil
}

func (r *analyticsRepo) ClassDistribution(_ context.Context, schoolID int64, yearFrom, yearTo int) (models.LetterDistribution, error) {
	dist := models.LetterDistribution{}
	r.d.read(func(t *tables) {
		for _, g := range t.grades {
			s, ok := t.students[g.StudentID]
			if !ok || g.SchoolID != schoolID || s.SchoolID != schoolID {
				continue
			}
			if s.AdmissionYear >= yearFrom && s.AdmissionYear <= yearTo {
				dist[g.Letter]++
			}
		}
	})
	return dist, nil
}

func (r *analyticsRepo) SchoolComparison(_ context.Context) ([]models.SchoolAverage, error) {
	sums := map[int64][2]int{}
	names := map[int64]string{}
	r.d.read(func(t *tables) {
		for _, g := range t.grades {
			s := sums[g.SchoolID]
			sums[g.SchoolID] = [2]int{s[0] + g.Marks, s[1] + 1}
			names[g.SchoolID] = t.schools[g.SchoolID].Name
		}
	})
	out := []models.SchoolAverage{}
	for id, s := range sums {
		out = append(out, models.SchoolAverage{SchoolName: names[id], AverageMarks: round2(float64(s[0]) / float64(s[1]))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageMarks != out[j].AverageMarks {
			return out[i].AverageMarks > out[j].AverageMarks
		}
		return out[i].SchoolName < out[j].SchoolName
	})
	return out, nil
}

// Inspection helpers for tests

// GradeCount counts the grade rows of (student, subject, term)
func (d *DB) GradeCount(studentID, subjectID int64, term string) int {
	n := 0
	d.read(func(t *tables) {
		for _, g := range t.grades {
			if g.StudentID == studentID && g.SubjectID == subjectID && g.Term == term {
				n++
			}
		}
	})
	return n
}

// UnusedLinkCodes lists the unused codes of a student
func (d *DB) UnusedLinkCodes(studentID int64) []string {
	var out []string
	d.read(func(t *tables) {
		for _, c := range t.linkCodes {
			if c.StudentID == studentID && !c.IsUsed {
				out = append(out, c.Code)
			}
		}
	})
	return out
}

// Sequence returns the admission counter of a school
func (d *DB) Sequence(schoolID int64) int {
	seq := 0
	d.read(func(t *tables) { seq = t.schools[schoolID].Seq })
	return seq
}
