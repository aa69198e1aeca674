package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound       = errors.New("ユーザーが見つかりません")
	ErrEmailAlreadyUsed   = errors.New("メールアドレスは既に使用されています")
	ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくありません")
	ErrEmailRequired      = errors.New("メールアドレスは必須です")
	ErrPasswordRequired   = errors.New("パスワードは必須です")
	ErrRolesRequired      = errors.New("ロールは1つ以上必要です")
)
