// Package admin 提供仅主租户可用的管理接口：租户配置、任务统计与租户文件上传。
package admin
