package service

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"
	"openjournal.app/backend/internal/entity"
	"openjournal.app/backend/internal/modules/files/dto"
	"openjournal.app/backend/internal/modules/files/repository"
	"openjournal.app/backend/pkg/storage"
)

type FileService interface {
	UploadFile(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadFileResponse, error)
}

type fileService struct {
	repo        repository.FileRepository
	fileStorage storage.FileStorage
}

func NewFileService(repo repository.FileRepository, fileStorage storage.FileStorage) FileService {
	return &fileService{repo: repo, fileStorage: fileStorage}
}

func (s *fileService) UploadFile(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadFileResponse, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ref, err := s.fileStorage.Upload(ctx, f, "manuscripts", file.Filename)
	if err != nil {
		return nil, err
	}

	upload := &entity.FileUpload{
		UserID:   userID,
		FileRef:  ref,
		FileName: file.Filename,
		FileType: file.Header.Get("Content-Type"),
	}
	if err := s.repo.Create(ctx, upload); err != nil {
		return nil, err
	}

	return &dto.UploadFileResponse{
		ID:       upload.ID,
		FileRef:  upload.FileRef,
		FileURL:  s.fileStorage.ResolveURL(upload.FileRef),
		FileType: upload.FileType,
	}, nil
}
