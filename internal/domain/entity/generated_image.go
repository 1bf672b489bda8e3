package entity

// ImageKind 图片类别
type ImageKind string

const (
	ImageKindConcept ImageKind = "concept"
	ImageKindUsage   ImageKind = "usage"
)

// Label 展示用标签
func (k ImageKind) Label() string {
	switch k {
	case ImageKindConcept:
		return "기본구상도"
	case ImageKindUsage:
		return "활용예상도"
	default:
		return ""
	}
}

// ImageKindFor 按提示词下标推断类别：前一半为概念图，后一半为使用场景图
func ImageKindFor(index, total int) ImageKind {
	if index < (total+1)/2 {
		return ImageKindConcept
	}
	return ImageKindUsage
}

// GeneratedImage 生成的插图
// Index 为对应提示词的下标，同一提示词返回多张时共享下标
type GeneratedImage struct {
	Index    int       `json:"index"`
	Kind     ImageKind `json:"kind"`
	MIMEType string    `json:"mime_type"`
	Data     []byte    `json:"data,omitempty"`
}
