package dto

type UpdateProfileRequest struct {
	FullName     *string `json:"full_name" validate:"omitempty,max=200"`
	Company      *string `json:"company" validate:"omitempty,max=200"`
	Phone        *string `json:"phone" validate:"omitempty,max=50"`
	TwoFAEnabled *bool   `json:"two_fa_enabled"`
}

type AdminUpdateUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=user admin"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}
