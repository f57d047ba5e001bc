// Package log 是全站共用的 zap 日志入口。
//
// Init 之前所有函数写入 no-op logger，命令行工具与测试不必先初始化。
// 业务代码在消息前加上 "[ServiceName]" 前缀，便于按组件检索。
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pastpapers-go/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultLogFile 是 output_path 为目录时写入的文件名。
const defaultLogFile = "pastpapers.log"

var sugar = zap.NewNop().Sugar()

// outputPaths 把 output_path 解析为 zap 的输出列表，stdout 总是保留。
// 空值或 stdout/stderr 只写控制台；以 .log 结尾视为文件；否则视为目录。
func outputPaths(outputPath string) ([]string, error) {
	p := strings.TrimSpace(outputPath)
	switch p {
	case "", "stdout":
		return []string{"stdout"}, nil
	case "stderr":
		return []string{"stderr"}, nil
	}

	file := p
	if filepath.Ext(p) != ".log" {
		file = filepath.Join(p, defaultLogFile)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	return []string{"stdout", file}, nil
}

// Init 按配置构建全局 logger。format 为 console 时使用带颜色的开发格式，其余为 JSON。
func Init(cfg config.LogConfig) error {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
		}
	}

	var zapConfig zap.Config
	if cfg.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = "json"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapConfig.Level = level

	paths, err := outputPaths(cfg.OutputPath)
	if err != nil {
		return err
	}
	zapConfig.OutputPaths = paths
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("构建 logger 失败: %w", err)
	}
	sugar = logger.Sugar()
	return nil
}

func Info(msg string) {
	sugar.Info(msg)
}

func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

// Infow 记录带键值对的 info 日志。
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

// Error 记录一条 error 日志，err 放在 "error" 字段中。
func Error(msg string, err error) {
	sugar.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

// Fatal 记录日志后以状态码 1 退出，只用于启动阶段。
func Fatal(msg string, err error) {
	sugar.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}

// Sync 刷新缓冲的日志。
func Sync() {
	_ = sugar.Sync()
}
