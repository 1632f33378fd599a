package model

import "time"

// User はサービス利用ユーザーを表す。
// 認証は上流のプロキシが担い、本サービスはユーザーIDのみを受け取る。
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
