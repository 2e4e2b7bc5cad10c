package evaluator

type CreatedEvent struct {
	Result Evaluator
}

type UpdatedEvent struct {
	Result Evaluator
}
