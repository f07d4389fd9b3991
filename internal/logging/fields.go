package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供租户/主机/路由处理器字段，供分发日志复用。
func RequestFields(requestID string, tenantID int, host, method, path, handler string) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"tenant":     tenantID,
		"host":       host,
		"method":     method,
		"path":       path,
		"handler":    handler,
	}
}

// OutcomeFields 描述一次分发的最终状态。
func OutcomeFields(state string, status int, elapsedMs int64) logrus.Fields {
	return logrus.Fields{
		"state":      state,
		"status":     status,
		"elapsed_ms": elapsedMs,
	}
}
