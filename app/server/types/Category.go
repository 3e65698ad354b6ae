package types

type CategoryInfo struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CategoryListResponse struct {
	Limit   int            `json:"limit"`
	PageMax int64          `json:"pageMax"`
	List    []CategoryInfo `json:"list"`
}
