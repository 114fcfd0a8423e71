package forum

const (
	PermTopicCreate  = "topic:create"
	PermTopicRead    = "topic:read"
	PermTopicEdit    = "topic:edit"
	PermTopicDelete  = "topic:delete"
	PermAnswerCreate = "answer:create"
	PermAnswerEdit   = "answer:edit"
	PermAnswerDelete = "answer:delete"
	PermCourseCreate = "course:create"
	PermCourseRead   = "course:read"
)
