// session.go 一次传输调用的会话计数和逐文件结果。
package transfer

// 单个文件的传输结果分类
const (
	StatusUploaded = "uploaded"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// 跳过原因
const (
	ReasonUnchanged = "unchanged"          // 远程已有同大小文件
	ReasonNoImage   = "no image available" // 渲染器没有可用封面
)

// FileOutcome 单个 ROM 文件的最终结果，创建后不再修改
type FileOutcome struct {
	Name       string `json:"name"`
	RemotePath string `json:"remote_path,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"` // skipped 的原因
	Error      string `json:"error,omitempty"`  // failed 的最后一次错误
	Bytes      int64  `json:"bytes,omitempty"`
}

// ImageOutcome 封面图的结果，形状与 FileOutcome 相同，单独上报
type ImageOutcome struct {
	Name       string `json:"name"`
	RemotePath string `json:"remote_path,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	Bytes      int64  `json:"bytes,omitempty"`
}

// Session 一次调用的运行中计数，只由编排线程修改，
// 进度回调拿到的是同一份记录的引用，调用返回后销毁。
type Session struct {
	TotalFiles  int
	TotalBytes  int64
	CurrentFile string

	Uploaded int
	Skipped  int
	Failed   int

	ImagesUploaded int
	ImagesSkipped  int
	ImagesFailed   int

	BytesSent int64
}

// Result 一次批量传输的分类结果
type Result struct {
	Uploaded []FileOutcome
	Skipped  []FileOutcome
	Failed   []FileOutcome
	Images   []ImageOutcome
}

// add 把结果计入对应的集合和会话计数
func (r *Result) add(s *Session, o FileOutcome) {
	switch o.Status {
	case StatusUploaded:
		r.Uploaded = append(r.Uploaded, o)
		s.Uploaded++
	case StatusSkipped:
		r.Skipped = append(r.Skipped, o)
		s.Skipped++
	case StatusFailed:
		r.Failed = append(r.Failed, o)
		s.Failed++
	}
}

func (r *Result) addImage(s *Session, o ImageOutcome) {
	r.Images = append(r.Images, o)
	switch o.Status {
	case StatusUploaded:
		s.ImagesUploaded++
	case StatusSkipped:
		s.ImagesSkipped++
	case StatusFailed:
		s.ImagesFailed++
	}
}
