// Command ppadmin 是过往试卷库的运维命令行：迁移、创建管理员、重建索引、批量导入。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
