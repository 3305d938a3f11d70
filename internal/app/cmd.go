package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandBrowse は対話型クライアントモードで起動することを示す。
	CommandBrowse Command = "browse"
	// CommandStub はインメモリのスタブストアを起動することを示す。
	// ローカル開発と結合テスト用。
	CommandStub Command = "stub"
	// CommandHealthcheck はスタブストアのヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandBrowseを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandBrowse
	}

	switch args[0] {
	case "stub":
		return CommandStub
	case "browse":
		return CommandBrowse
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandBrowse
	}
}
