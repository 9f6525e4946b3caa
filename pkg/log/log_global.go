package log

// Package-level helpers over the global sugared logger.

func Info(args ...any)  { GetLogger().Info(args...) }
func Debug(args ...any) { GetLogger().Debug(args...) }
func Warn(args ...any)  { GetLogger().Warn(args...) }
func Error(args ...any) { GetLogger().Error(args...) }
func Fatal(args ...any) { GetLogger().Fatal(args...) }

func Infof(format string, args ...any)  { GetLogger().Infof(format, args...) }
func Debugf(format string, args ...any) { GetLogger().Debugf(format, args...) }
func Warnf(format string, args ...any)  { GetLogger().Warnf(format, args...) }
func Errorf(format string, args ...any) { GetLogger().Errorf(format, args...) }
func Fatalf(format string, args ...any) { GetLogger().Fatalf(format, args...) }

func Infow(msg string, keysAndValues ...any)  { GetLogger().Infow(msg, keysAndValues...) }
func Debugw(msg string, keysAndValues ...any) { GetLogger().Debugw(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { GetLogger().Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...any) { GetLogger().Errorw(msg, keysAndValues...) }
