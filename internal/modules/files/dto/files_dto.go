package dto

type UploadFileResponse struct {
	ID       uint   `json:"id"`
	FileRef  string `json:"file_ref"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}
