package dto

// CredentialStatusResponse 凭证状态
type CredentialStatusResponse struct {
	Ready         bool   `json:"ready"`
	Source        string `json:"source,omitempty"`
	Optimistic    bool   `json:"optimistic,omitempty"`
	LastRejection string `json:"last_rejection,omitempty"`
}

// StoreCredentialRequest 用户输入凭证
type StoreCredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}
