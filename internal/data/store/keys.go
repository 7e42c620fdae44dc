package store

// Key layout. Conversations and their message lists live in the chat DB,
// documents/chunks/citations in the document DB, jobs in the job DB.
const (
	conversationKeyPrefix = "conv:"
	messagesKeyPrefix     = "convmsgs:"
	documentKeyPrefix     = "doc:"
	convDocsKeyPrefix     = "convdocs:"
	docChunksKeyPrefix    = "docchunks:"
	chunkKeyPrefix        = "chunk:"
	citationsKeyPrefix    = "msgcites:"
	jobKeyPrefix          = "job:"
)
