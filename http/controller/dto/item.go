package dto

import "github.com/google/uuid"

type CreateFolderRequestDTO struct {
	Name     string     `json:"name" binding:"required,min=1,max=512"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type ShareItemRequestDTO struct {
	Email string `json:"email" binding:"required,email"`
	Level string `json:"level" binding:"required,oneof=VIEW EDIT"`
}
