package shared

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageQuery 列表请求体中的分页字段，嵌入到各列表请求
type PageQuery struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize 页码从 1 开始，page_size 缺省 20、上限 100
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}
