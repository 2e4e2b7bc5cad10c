package subject

type CreatedEvent struct {
	Result Subject
}

type UpdatedEvent struct {
	Result Subject
}
