package service

import (
	"context"
	"sync"
	"time"

	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/repository"
)

// In-memory fakes for the repository interfaces. They reproduce the
// conditional-update semantics the SQL layer relies on so concurrency
// behavior is testable without a database.

type fakeStudents struct {
	mu       sync.Mutex
	students map[string]*model.Student
}

func newFakeStudents(students ...*model.Student) *fakeStudents {
	f := &fakeStudents{students: make(map[string]*model.Student)}
	for _, s := range students {
		f.students[s.ID] = s
	}
	return f
}

func (f *fakeStudents) GetByID(_ context.Context, id string) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStudents) GetByIdentifier(_ context.Context, identifier string) (*model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if s.AdmissionNumber == identifier {
			cp := *s
			return &cp, nil
		}
	}
	for _, s := range f.students {
		if s.ApplicationNumber != "" && s.ApplicationNumber == identifier {
			cp := *s
			return &cp, nil
		}
	}
	if s, ok := f.students[identifier]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

type fakeHalls struct {
	halls map[string]*model.ExamHall
}

func newFakeHalls(halls ...*model.ExamHall) *fakeHalls {
	f := &fakeHalls{halls: make(map[string]*model.ExamHall)}
	for _, h := range halls {
		f.halls[h.ID] = h
	}
	return f
}

func (f *fakeHalls) GetByID(_ context.Context, id string) (*model.ExamHall, error) {
	if h, ok := f.halls[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

type fakePasscodes struct {
	mu    sync.Mutex
	codes map[string]*model.Passcode // by ID
	now   func() time.Time
}

func newFakePasscodes(now func() time.Time) *fakePasscodes {
	return &fakePasscodes{codes: make(map[string]*model.Passcode), now: now}
}

func (f *fakePasscodes) Create(_ context.Context, p *model.Passcode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.CreatedAt = f.now()
	cp := *p
	f.codes[p.ID] = &cp
	return nil
}

func (f *fakePasscodes) GetByCode(_ context.Context, code string) (*model.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Passcode
	for _, p := range f.codes {
		if p.Code != code {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakePasscodes) Consume(_ context.Context, code, studentID, ip, ua string) (*model.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	for _, p := range f.codes {
		if p.Code == code && p.StudentID == studentID &&
			!p.IsUsed && p.RevokedAt == nil && now.Before(p.ExpiresAt) {
			p.IsUsed = true
			used := now
			p.UsedAt = &used
			p.IPAddress = ip
			p.UserAgent = ua
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePasscodes) Revoke(_ context.Context, id string) (*model.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.codes[id]
	if !ok || p.IsUsed || p.RevokedAt != nil {
		return nil, repository.ErrNotFound
	}
	now := f.now()
	p.RevokedAt = &now
	cp := *p
	return &cp, nil
}

func (f *fakePasscodes) RevokeActiveForStudent(_ context.Context, studentID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	var codes []string
	for _, p := range f.codes {
		if p.StudentID == studentID && !p.IsUsed && p.RevokedAt == nil && now.Before(p.ExpiresAt) {
			revoked := now
			p.RevokedAt = &revoked
			codes = append(codes, p.Code)
		}
	}
	return codes, nil
}

func (f *fakePasscodes) ListByStudent(_ context.Context, studentID string) ([]model.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Passcode
	for _, p := range f.codes {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePasscodes) Stats(_ context.Context) (*model.PasscodeStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	s := &model.PasscodeStats{}
	for _, p := range f.codes {
		s.Total++
		switch {
		case p.IsUsed:
			s.Used++
		case p.RevokedAt != nil:
			s.Revoked++
		case now.Before(p.ExpiresAt):
			s.Active++
		default:
			s.Expired++
		}
	}
	return s, nil
}

func (f *fakePasscodes) CodeActive(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	for _, p := range f.codes {
		if p.Code == code && !p.IsUsed && p.RevokedAt == nil && now.Before(p.ExpiresAt) {
			return true, nil
		}
	}
	return false, nil
}

type fakeExams struct {
	exams       map[string]*model.Exam
	questionIDs map[string][]string
	topics      map[string][]model.ExamTopic
	registered  map[string]map[string]bool // studentID -> subjectID
	attempts    *fakeAttempts
}

func newFakeExams(exams ...*model.Exam) *fakeExams {
	f := &fakeExams{
		exams:       make(map[string]*model.Exam),
		questionIDs: make(map[string][]string),
		topics:      make(map[string][]model.ExamTopic),
		registered:  make(map[string]map[string]bool),
	}
	for _, e := range exams {
		f.exams[e.ID] = e
	}
	return f
}

func (f *fakeExams) register(studentID, subjectID string) {
	if f.registered[studentID] == nil {
		f.registered[studentID] = make(map[string]bool)
	}
	f.registered[studentID][subjectID] = true
}

func (f *fakeExams) GetByID(_ context.Context, id string) (*model.Exam, error) {
	if e, ok := f.exams[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeExams) ListAvailable(_ context.Context, studentID, className string) ([]model.Exam, error) {
	now := time.Now()
	var out []model.Exam
	for _, e := range f.exams {
		if !e.Open(now) {
			continue
		}
		if e.ClassName != "" && e.ClassName != className {
			continue
		}
		if !f.registered[studentID][e.SubjectID] {
			continue
		}
		if f.attempts != nil && f.attempts.turnedIn(studentID, e.ID) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeExams) ListQuestionIDs(_ context.Context, examID string) ([]string, error) {
	return append([]string(nil), f.questionIDs[examID]...), nil
}

func (f *fakeExams) ListTopics(_ context.Context, examID string) ([]model.ExamTopic, error) {
	return append([]model.ExamTopic(nil), f.topics[examID]...), nil
}

type fakeBank struct {
	questions map[string]*model.Question
	byTopic   map[string][]string
}

func newFakeBank(questions ...*model.Question) *fakeBank {
	f := &fakeBank{
		questions: make(map[string]*model.Question),
		byTopic:   make(map[string][]string),
	}
	for _, q := range questions {
		f.questions[q.ID] = q
		if q.TopicID != "" {
			f.byTopic[q.TopicID] = append(f.byTopic[q.TopicID], q.ID)
		}
	}
	return f
}

func (f *fakeBank) ListByIDs(_ context.Context, ids []string) ([]model.Question, error) {
	var out []model.Question
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (f *fakeBank) ListIDsByTopic(_ context.Context, topicID string) ([]string, error) {
	return append([]string(nil), f.byTopic[topicID]...), nil
}

type fakeAttempts struct {
	mu         sync.Mutex
	attempts   map[string]*model.Attempt // by ID
	answers    map[string][]model.Answer
	failSubmit error // consumed by the next SubmitGraded, leaving state untouched
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		attempts: make(map[string]*model.Attempt),
		answers:  make(map[string][]model.Answer),
	}
}

func (f *fakeAttempts) find(studentID, examID string) *model.Attempt {
	for _, a := range f.attempts {
		if a.StudentID == studentID && a.ExamID == examID {
			return a
		}
	}
	return nil
}

func copyAttempt(a *model.Attempt) *model.Attempt {
	cp := *a
	cp.QuestionOrder = append([]string(nil), a.QuestionOrder...)
	if a.OptionLayouts != nil {
		cp.OptionLayouts = make(map[string]model.OptionLayout, len(a.OptionLayouts))
		for k, v := range a.OptionLayouts {
			cp.OptionLayouts[k] = v
		}
	}
	return &cp
}

func (f *fakeAttempts) GetOrCreate(_ context.Context, id, studentID, examID string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.find(studentID, examID); existing != nil {
		return copyAttempt(existing), nil
	}
	a := &model.Attempt{
		ID:        id,
		StudentID: studentID,
		ExamID:    examID,
		Status:    model.AttemptStatusNotStarted,
		CreatedAt: time.Now(),
	}
	f.attempts[id] = a
	return copyAttempt(a), nil
}

func (f *fakeAttempts) GetByStudentAndExam(_ context.Context, studentID, examID string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a := f.find(studentID, examID); a != nil {
		return copyAttempt(a), nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttempts) GetByID(_ context.Context, id string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.attempts[id]; ok {
		return copyAttempt(a), nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAttempts) LockLayout(_ context.Context, attemptID string, questionOrder []string, layouts map[string]model.OptionLayout, startedAt time.Time) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok || a.Status != model.AttemptStatusNotStarted {
		return nil, repository.ErrNotFound
	}
	a.Status = model.AttemptStatusInProgress
	a.StartedAt = &startedAt
	a.QuestionOrder = append([]string(nil), questionOrder...)
	a.OptionLayouts = layouts
	return copyAttempt(a), nil
}

func (f *fakeAttempts) SubmitGraded(_ context.Context, attemptID string, submittedAt time.Time, answers []model.Answer, score, percentage float64, grade string, passed, requiresManualReview bool) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSubmit; err != nil {
		f.failSubmit = nil
		return nil, err
	}
	a, ok := f.attempts[attemptID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Status != model.AttemptStatusNotStarted && a.Status != model.AttemptStatusInProgress {
		return nil, repository.ErrNotFound
	}
	a.Status = model.AttemptStatusGraded
	a.SubmittedAt = &submittedAt
	a.Score = &score
	a.Percentage = &percentage
	a.Grade = grade
	a.Passed = &passed
	a.RequiresManualReview = requiresManualReview
	f.answers[attemptID] = append(f.answers[attemptID], answers...)
	return copyAttempt(a), nil
}

func (f *fakeAttempts) turnedIn(studentID, examID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.find(studentID, examID)
	return a != nil && (a.Status == model.AttemptStatusSubmitted || a.Status == model.AttemptStatusGraded)
}

func (f *fakeAttempts) ListAnswers(_ context.Context, attemptID string) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Answer(nil), f.answers[attemptID]...), nil
}

type fakeSubjects struct {
	mu         sync.Mutex
	scores     map[string]float64 // studentID + "/" + subjectID
	failDirect bool
}

func (f *fakeSubjects) UpdateObjectiveScore(_ context.Context, studentID, subjectID string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDirect {
		return repository.ErrNotFound
	}
	if f.scores == nil {
		f.scores = make(map[string]float64)
	}
	f.scores[studentID+"/"+subjectID] = score
	return nil
}

type fakeQueue struct {
	mu      sync.Mutex
	updates []repository.SubjectScoreUpdate
}

func (f *fakeQueue) Enqueue(_ context.Context, update repository.SubjectScoreUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	return nil
}

// taker returns an exam taker for tests.
func taker(studentID string) *model.ExamTaker {
	return &model.ExamTaker{StudentID: studentID, AdmissionNumber: "ADM-" + studentID, SessionToken: "tok-" + studentID}
}
