package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置接口，由 config.LogConfig 实现
type LogConfig interface {
	GetLevel() string
	GetOutput() string
	GetFile() string
}

// Logger printf 风格的日志器
type Logger struct {
	zapLogger *zap.Logger
}

// 日志文件轮转参数
const (
	rotateMaxSizeMB  = 100
	rotateMaxBackups = 5
	rotateMaxAgeDays = 14
)

var defaultLogger = newLogger(zapcore.InfoLevel, zapcore.Lock(os.Stdout))

// encoderConfig 统一的编码配置
func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	cfg.CallerKey = "caller"
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.MessageKey = "message"
	return cfg
}

// newLogger debug 级别使用控制台格式，其余输出 JSON
func newLogger(level zapcore.Level, ws zapcore.WriteSyncer) *Logger {
	var encoder zapcore.Encoder
	if level == zapcore.DebugLevel {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	}
	return fromCore(zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level)))
}

func fromCore(core zapcore.Core) *Logger {
	return &Logger{zapLogger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}
}

// Init 根据配置初始化默认日志器
func Init(cfg LogConfig) error {
	level := ParseLevel(cfg.GetLevel())

	var ws zapcore.WriteSyncer
	switch strings.ToLower(cfg.GetOutput()) {
	case "file":
		if cfg.GetFile() == "" {
			return fmt.Errorf("log file name must not be empty")
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.GetFile(),
			MaxSize:    rotateMaxSizeMB,
			MaxBackups: rotateMaxBackups,
			MaxAge:     rotateMaxAgeDays,
			Compress:   true,
		})
	case "stderr":
		ws = zapcore.Lock(os.Stderr)
	default:
		ws = zapcore.Lock(os.Stdout)
	}

	SetDefaultLogger(newLogger(level, ws))
	return nil
}

// ParseLevel 解析日志级别，无法识别时为 info
func ParseLevel(level string) zapcore.Level {
	if strings.EqualFold(level, "warning") {
		return zapcore.WarnLevel
	}
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zapLogger.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zapLogger.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zapLogger.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zapLogger.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.zapLogger.Fatal(fmt.Sprintf(format, args...))
}

// Sync 同步日志
func (l *Logger) Sync() {
	_ = l.zapLogger.Sync()
}

// With 添加字段
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zapLogger: l.zapLogger.With(fields...)}
}

// SetDefaultLogger 设置默认日志器
func SetDefaultLogger(l *Logger) {
	if defaultLogger != nil {
		defaultLogger.Sync()
	}
	defaultLogger = l
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatal(format, args...)
}

func Sync() {
	defaultLogger.Sync()
}

func With(fields ...zap.Field) *Logger {
	return defaultLogger.With(fields...)
}

// ForInput advance 请求的日志器，附带输入序号与发送方
func ForInput(inputIndex uint64, sender string) *Logger {
	return With(zap.Uint64("input_index", inputIndex), zap.String("msg_sender", sender))
}

// ForInspect inspect 请求的日志器
func ForInspect(route string) *Logger {
	return With(zap.String("inspect", route))
}
