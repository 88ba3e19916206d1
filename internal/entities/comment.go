package entities

// ColParentID links a threaded reply to its parent comment.
const ColParentID = "parent_id"

// MaxCommentDepth bounds comment threading. Depth 0 is a top-level comment;
// replies may nest at most this deep.
const MaxCommentDepth = 3

// Comment is a remark on a task; comments thread through ParentID up to
// MaxCommentDepth. The owner is the author.
type Comment struct {
	Base `json:"-"`

	TaskID   string `json:"-"`
	ParentID string `json:"-"`
	Body     string `json:"body"`
}

func (*Comment) Type() ResourceType { return TypeComment }

func (c *Comment) Refs() map[string]string {
	return map[string]string{
		ColTaskID:   c.TaskID,
		ColParentID: c.ParentID,
	}
}

func (c *Comment) SetRef(column, value string) {
	switch column {
	case ColTaskID:
		c.TaskID = value
	case ColParentID:
		c.ParentID = value
	}
}
