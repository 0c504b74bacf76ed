package config

type WorkerKeyStruct struct {
	// SubjectScoreQueue holds grading side effects that could not be applied
	// inline and await reconciliation.
	SubjectScoreQueue string
}

func NewWorkerKeyStruct() *WorkerKeyStruct {
	return &WorkerKeyStruct{
		SubjectScoreQueue: "queue:subject_scores",
	}
}

var WorkerKey = NewWorkerKeyStruct()
