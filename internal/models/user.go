package models

// UserProfile is the set of user fields a client may write. The admin flag is
// only toggled through the admin routes.
type UserProfile struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Education *string `json:"education,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
	Image     *string `json:"image,omitempty"`
}

// Patch returns the profile fields that were set.
func (p UserProfile) Patch() Document {
	return patchOf(p)
}

// AdminPatch returns the patch that sets or clears the admin flag.
func AdminPatch(admin bool) Document {
	return Document{"admin": admin}
}
