package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/scholaris/cbt-backend/internal/model"
)

// PracticeService serves practice exams from JSON files on disk. Practice
// mode is stateless: no session, no attempt record, nothing persisted.
type PracticeService struct {
	dir    string
	logger zerolog.Logger

	mu    sync.RWMutex
	exams map[string]*model.PracticeExam
}

// NewPracticeService creates a PracticeService and loads the pool from dir.
// A missing or empty directory yields an empty pool, not an error.
func NewPracticeService(dir string, logger zerolog.Logger) *PracticeService {
	s := &PracticeService{
		dir:    dir,
		logger: logger.With().Str("component", "practice").Logger(),
		exams:  make(map[string]*model.PracticeExam),
	}
	s.Reload()
	return s
}

// Reload re-reads the practice directory. Files that fail to parse are
// skipped with a warning so one bad file cannot take the pool down.
func (s *PracticeService) Reload() {
	loaded := make(map[string]*model.PracticeExam)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("dir", s.dir).Msg("cannot read practice directory")
		}
		s.swap(loaded)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", path).Msg("cannot read practice file")
			continue
		}

		exam := &model.PracticeExam{}
		if err := json.Unmarshal(raw, exam); err != nil {
			s.logger.Warn().Err(err).Str("file", path).Msg("cannot parse practice file")
			continue
		}
		if exam.ID == "" {
			exam.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		loaded[exam.ID] = exam
	}

	s.swap(loaded)
	s.logger.Info().Int("count", len(loaded)).Msg("practice pool loaded")
}

func (s *PracticeService) swap(exams map[string]*model.PracticeExam) {
	s.mu.Lock()
	s.exams = exams
	s.mu.Unlock()
}

// List returns summaries of the available practice exams, sorted by ID.
func (s *PracticeService) List() []model.PracticeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]model.PracticeSummary, 0, len(s.exams))
	for _, e := range s.exams {
		summaries = append(summaries, model.PracticeSummary{
			ID:              e.ID,
			Title:           e.Title,
			Subject:         e.Subject,
			DurationMinutes: e.DurationMinutes,
			QuestionCount:   len(e.Questions),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries
}

// Get returns a practice exam stripped of its answer key.
func (s *PracticeService) Get(id string) (*model.PracticeExam, error) {
	exam, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	out := &model.PracticeExam{
		ID:              exam.ID,
		Title:           exam.Title,
		Subject:         exam.Subject,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]model.PracticeQuestion, len(exam.Questions)),
	}
	for i, q := range exam.Questions {
		q.CorrectAnswer = ""
		q.Explanation = ""
		out.Questions[i] = q
	}
	return out, nil
}

// Grade scores a stateless practice submission and returns the full
// breakdown, including correct answers and explanations for study.
func (s *PracticeService) Grade(id string, answers map[string]string) (*model.PracticeResult, error) {
	exam, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	result := &model.PracticeResult{
		ExamID:        exam.ID,
		QuestionCount: len(exam.Questions),
	}
	for _, q := range exam.Questions {
		result.TotalMarks += q.Marks

		given := strings.TrimSpace(answers[q.ID])
		correct := given != "" && strings.EqualFold(given, strings.TrimSpace(q.CorrectAnswer))
		if correct {
			result.Score += q.Marks
			result.CorrectCount++
		}
		result.Breakdown = append(result.Breakdown, model.PracticeAnswerOutcome{
			QuestionID:    q.ID,
			Given:         given,
			Correct:       correct,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}

	if result.TotalMarks > 0 {
		result.Percentage = result.Score / result.TotalMarks * 100
	}
	result.Grade = model.GradeFor(result.Percentage)
	return result, nil
}

func (s *PracticeService) lookup(id string) (*model.PracticeExam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exam, ok := s.exams[id]
	if !ok {
		return nil, fmt.Errorf("practice exam %q: %w", id, ErrExamNotFound)
	}
	return exam, nil
}
