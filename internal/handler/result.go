package handler

// Payload 让处理器以指定的 Content-Type 返回原始内容，例如静态文件。
type Payload struct {
	ContentType string
	Body        []byte
}

// Redirect 让处理器要求一次 302 跳转。
type Redirect struct {
	Location string
}
