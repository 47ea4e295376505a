// Package category holds the authoritative category table: numeric ids
// as the backend schema defines them, their display names, and the
// grouping used by the browse filter. The grouping mirrors the id layout,
// so filtering by a group name matches exactly the ids of its leaves.
package category

// DefaultID is the fallback category (기타물품) for registrations that
// carry no recognizable category.
const DefaultID = 64

// names maps category id to display name.
var names = map[int]string{
	1: "여성용가방", 2: "남성용가방", 3: "기타가방",
	4: "반지", 5: "목걸이", 6: "귀걸이", 7: "시계", 8: "기타(귀금속)",
	9: "학습서적", 10: "소설", 11: "컴퓨터서적", 12: "만화책", 13: "기타서적",
	14: "서류", 15: "기타(서류)",
	16: "쇼핑백",
	17: "스포츠용품",
	18: "건반악기", 19: "타악기", 20: "관악기", 21: "현악기", 22: "기타악기",
	23: "어음", 24: "상품권", 25: "채권", 26: "기타(유가증권)",
	27: "여성의류", 28: "남성의류", 29: "아기의류", 30: "모자", 31: "신발", 32: "기타의류",
	33: "자동차열쇠", 34: "네비게이션", 35: "자동차번호판", 36: "임시번호판", 37: "기타(자동차용품)",
	38: "태블릿", 39: "스마트워치", 40: "무선이어폰", 41: "카메라", 42: "기타(전자기기)",
	43: "여성용지갑", 44: "남성용지갑", 45: "기타지갑",
	46: "신분증", 47: "면허증", 48: "여권", 49: "기타(증명서)",
	50: "삼성노트북", 51: "LG노트북", 52: "애플노트북", 53: "기타(컴퓨터)",
	54: "신용(체크)카드", 55: "일반카드", 56: "교통카드", 57: "기타카드",
	58: "현금",
	59: "삼성휴대폰", 60: "LG휴대폰", 61: "아이폰", 62: "기타휴대폰", 63: "기타통신기기",
	64: "기타물품", 65: "무안공항유류품", 66: "유류품", 67: "무주물",
}

// groups maps group name to member category ids.
var groups = map[string][]int{
	"가방":    {1, 2, 3},
	"귀금속":   {4, 5, 6, 7, 8},
	"도서용품":  {9, 10, 11, 12, 13},
	"서류":    {14, 15},
	"쇼핑백":   {16},
	"스포츠용품": {17},
	"악기":    {18, 19, 20, 21, 22},
	"유가증권":  {23, 24, 25, 26},
	"의류":    {27, 28, 29, 30, 31, 32},
	"자동차":   {33, 34, 35, 36, 37},
	"전자기기":  {38, 39, 40, 41, 42},
	"지갑":    {43, 44, 45},
	"증명서":   {46, 47, 48, 49},
	"컴퓨터":   {50, 51, 52, 53},
	"카드":    {54, 55, 56, 57},
	"현금":    {58},
	"휴대폰":   {59, 60, 61, 62, 63},
	"기타물품":  {64},
	"유류품":   {65, 66},
	"무주물":   {67},
}

// ids is the reverse of names, built once at init.
var ids = func() map[string]int {
	m := make(map[string]int, len(names))
	for id, name := range names {
		m[name] = id
	}
	return m
}()

// Name returns the display name for an id, or "" if unknown.
func Name(id int) string {
	return names[id]
}

// ID returns the category id for a leaf name, or 0 if unknown.
func ID(name string) int {
	return ids[name]
}

// Valid reports whether id is a known category.
func Valid(id int) bool {
	_, ok := names[id]
	return ok
}

// Expand resolves a filter term to category ids. A group name expands to
// every leaf in the group; a leaf name matches itself only. Unknown terms
// return nil, which callers treat as "matches nothing".
func Expand(name string) []int {
	if members, ok := groups[name]; ok {
		out := make([]int, len(members))
		copy(out, members)
		return out
	}
	if id, ok := ids[name]; ok {
		return []int{id}
	}
	return nil
}
