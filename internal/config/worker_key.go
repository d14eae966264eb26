package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	PersistExitsQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	PersistExitsQueue:   "persist_exits_queue",
}
