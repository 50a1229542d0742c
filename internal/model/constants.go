package model

// MemberRole 보드 멤버 역할
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleEditor MemberRole = "editor"
	MemberRoleViewer MemberRole = "viewer"
)

// String 메서드
func (r MemberRole) String() string {
	return string(r)
}

// CanEdit 캔버스 저장/버전 생성 가능 여부
func (r MemberRole) CanEdit() bool {
	return r == MemberRoleOwner || r == MemberRoleEditor
}
