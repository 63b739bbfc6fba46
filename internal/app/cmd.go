package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandSeed は管理者アカウントの投入のみを行うことを示す。
	CommandSeed Command = "seed"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "seed":
		return CommandSeed
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// MigrateDirection はmigrateサブコマンドの操作種別。
type MigrateDirection string

const (
	MigrateUp      MigrateDirection = "up"
	MigrateDown    MigrateDirection = "down"
	MigrateVersion MigrateDirection = "version"
)

// MigrateArgs はmigrateサブコマンドの引数を解析した結果。
type MigrateArgs struct {
	Direction MigrateDirection
	// Steps はdownで戻すステップ数。up/versionでは使用しない。
	Steps int
}

// ParseMigrateArgs は"migrate"以降の引数を解析する。
// 引数なしはup、downのステップ数省略時は1とする。
func ParseMigrateArgs(args []string) (MigrateArgs, error) {
	if len(args) == 0 {
		return MigrateArgs{Direction: MigrateUp}, nil
	}

	switch MigrateDirection(args[0]) {
	case MigrateUp:
		if len(args) > 1 {
			return MigrateArgs{}, fmt.Errorf("migrate up takes no arguments")
		}
		return MigrateArgs{Direction: MigrateUp}, nil
	case MigrateVersion:
		if len(args) > 1 {
			return MigrateArgs{}, fmt.Errorf("migrate version takes no arguments")
		}
		return MigrateArgs{Direction: MigrateVersion}, nil
	case MigrateDown:
		steps := 1
		if len(args) > 2 {
			return MigrateArgs{}, fmt.Errorf("migrate down takes at most one argument")
		}
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return MigrateArgs{}, fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		return MigrateArgs{Direction: MigrateDown, Steps: steps}, nil
	default:
		return MigrateArgs{}, fmt.Errorf("unknown migrate action %q", args[0])
	}
}
