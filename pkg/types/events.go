package types

// Inbound event types accepted from clients.
const (
	MessageTypeHost           = "host"
	MessageTypeJoin           = "join"
	MessageTypeNextQuestion   = "nextQuestion"
	MessageTypeResetExecution = "resetExecution"
)

// Outbound event types emitted by the coordinator.
const (
	EventHostDetails    = "hostDetails"
	EventJoinDetails    = "joinDetails"
	EventStatus         = "status"
	EventNewQuestion    = "newQuestion"
	EventQuestionPosted = "questionPosted"
	EventQuizCompleted  = "quizCompleted"
	EventExecutionReset = "executionReset"
	EventError          = "error"
)

// Event is the outbound wire envelope for every coordinator message.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StatusPayload is broadcast to the whole group at every broadcast point.
type StatusPayload struct {
	State            SessionStatus `json:"state"`
	ParticipantCount int           `json:"participantCount"`
}

// HostDetailsPayload carries the full quiz snapshot to the host only.
type HostDetailsPayload struct {
	Quiz *Quiz `json:"quiz"`
}

// JoinDetailsPayload carries the quiz title only, so joining participants
// cannot see future questions.
type JoinDetailsPayload struct {
	QuizTitle string `json:"quizTitle"`
}

// NewQuestionPayload is broadcast when the host reveals the next question.
// Answers are titles only, in stored order.
type NewQuestionPayload struct {
	Question       string   `json:"question"`
	Answers        []string `json:"answers"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

// QuestionPostedPayload is the private acknowledgement sent to the host after
// a question broadcast.
type QuestionPostedPayload struct {
	QuestionNumber int `json:"questionNumber"`
}

// ErrorPayload carries a human-readable failure message to one connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewErrorEvent wraps an error into the private error event sent back to the
// originating connection.
func NewErrorEvent(err error) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: err.Error()}}
}

// NewStatusEvent builds the status broadcast for a session's current state.
func NewStatusEvent(s *Session) Event {
	return Event{Type: EventStatus, Payload: StatusPayload{
		State:            s.Status,
		ParticipantCount: s.ParticipantCount(),
	}}
}
