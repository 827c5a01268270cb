package chat

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of a provider-managed conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
