package rbac

// EnforceRequest asks whether Subject (a role) may perform Action on Resource.
type EnforceRequest struct {
	Subject  string `json:"subject"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
