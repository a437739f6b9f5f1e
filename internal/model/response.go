package model

// APIResponse 通用API响应结构
type APIResponse struct {
	Code    int         `json:"code,omitempty"`  // 响应状态码，可选
	Status  string      `json:"status"`          // 响应状态："success" 或 "error"
	Message string      `json:"message"`         // 响应消息
	Data    interface{} `json:"data,omitempty"`  // 响应数据，可选
	Error   string      `json:"error,omitempty"` // 错误信息，可选
}

// BatchRunRequest 批量采集请求
type BatchRunRequest struct {
	SourceIDs   []string `json:"sourceIds"`   // 为空时运行全部活跃数据源
	Concurrency int      `json:"concurrency"` // 每批并发数，0 使用默认值
}
