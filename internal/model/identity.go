// Package model はドメインモデルを定義する。
package model

// DefaultAvatarURL はphotoURL未指定時に使用するデフォルトアバター。
const DefaultAvatarURL = "https://i.ibb.co/0jZ1Z1Z/default-avatar.png"

// Identity は認証済みプリンシパルとその表示属性を表す。
// session.Storeだけが生成・破棄し、他のコンポーネントは読み取り専用の
// スナップショットとして扱う。
type Identity struct {
	UID         string // IdPが発行する安定ID
	Email       string // 所有者キー。レビュー・お気に入りのownerとして使用する
	DisplayName string
	PhotoURL    string
	IDToken     string // IdPが発行したトークン。プロファイル更新時に使用する
}

// Profile はリモートストアに保存するプロフィールスナップショット。
// サインアップ・フェデレーテッドサインイン成功時にupsertされる。
type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}
