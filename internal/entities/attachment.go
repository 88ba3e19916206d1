package entities

// Attachment is file metadata recorded against a task. The binary payload
// lives in external storage under StorageKey; the owner is the uploader.
type Attachment struct {
	Base `json:"-"`

	TaskID      string `json:"-"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	StorageKey  string `json:"storage_key"`
}

func (*Attachment) Type() ResourceType { return TypeAttachment }

func (a *Attachment) Refs() map[string]string {
	return map[string]string{ColTaskID: a.TaskID}
}

func (a *Attachment) SetRef(column, value string) {
	if column == ColTaskID {
		a.TaskID = value
	}
}
