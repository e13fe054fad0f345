package page

import (
	"fmt"
	"strings"
)

type SectionType string

const (
	SectionIntro    SectionType = "intro"
	SectionProblem  SectionType = "problem"
	SectionSolution SectionType = "solution"
	SectionGallery  SectionType = "gallery"
	SectionDetail   SectionType = "detail"
	SectionTrust    SectionType = "trust"
	SectionInfo     SectionType = "info"
	SectionCTA      SectionType = "cta"
)

// MaxGalleryImages bounds SectionData.ImageURLs.
const MaxGalleryImages = 4

// SectionTypes lists every kind in template order.
var SectionTypes = []SectionType{
	SectionIntro,
	SectionProblem,
	SectionSolution,
	SectionGallery,
	SectionDetail,
	SectionTrust,
	SectionInfo,
	SectionCTA,
}

var sectionLabels = map[SectionType]string{
	SectionIntro:    "인트로 (Hook)",
	SectionProblem:  "문제 제기 (공감)",
	SectionSolution: "해결책 (USP)",
	SectionGallery:  "갤러리 (이미지)",
	SectionDetail:   "디테일 (혜택)",
	SectionTrust:    "신뢰 (리뷰/인증)",
	SectionInfo:     "정보 & FAQ",
	SectionCTA:      "구매 유도 (CTA)",
}

var sectionGuides = map[SectionType]string{
	SectionIntro:    "후킹 & 공감: '이 제품을 쓰면 내 삶이 어떻게 변하는가?'에 집중하세요.",
	SectionProblem:  "문제 제기: '혹시 이런 경험 없으신가요?' 불편한 상황을 재현하세요.",
	SectionSolution: "해결책: 제품을 해결사로 등장시키고 핵심 USP 3가지를 요약하세요.",
	SectionGallery:  "제품 갤러리: 다양한 연출컷과 디테일컷을 콜라쥬로 보여주세요.",
	SectionDetail:   "디테일 & 혜택: 기능(Feature)을 혜택(Benefit)으로 바꿔서 설명하세요.",
	SectionTrust:    "신뢰 구축: 리뷰, 인증, 비포/애프터 등 객관적 증거를 보여주세요.",
	SectionInfo:     "정보 & FAQ: 필수 정보와 구매 망설임을 없애는 Q&A를 작성하세요.",
	SectionCTA:      "구매 유도: '오늘만 무료배송', '한정수량' 등 강력한 혜택을 제시하세요.",
}

func (t SectionType) Valid() bool {
	_, ok := sectionLabels[t]
	return ok
}

func (t SectionType) Label() string { return sectionLabels[t] }

func (t SectionType) Guide() string { return sectionGuides[t] }

// HasItems reports whether the kind carries a title/desc item list.
func (t SectionType) HasItems() bool {
	return t == SectionSolution || t == SectionTrust || t == SectionInfo
}

func ParseSectionType(raw string) (SectionType, error) {
	t := SectionType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown section type %q", raw)
	}
	return t, nil
}

type SectionItem struct {
	Title string `json:"title" yaml:"title"`
	Desc  string `json:"desc" yaml:"desc"`
}

type SectionData struct {
	ID         string        `json:"id" yaml:"id"`
	Type       SectionType   `json:"type" yaml:"type"`
	Title      string        `json:"title" yaml:"title"`
	Content    string        `json:"content" yaml:"content"`
	SubContent string        `json:"sub_content,omitempty" yaml:"sub_content,omitempty"`
	ImageURL   string        `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	ImageURLs  []string      `json:"image_urls,omitempty" yaml:"image_urls,omitempty"`
	Items      []SectionItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// Clone returns a deep copy.
func (s SectionData) Clone() SectionData {
	out := s
	if s.ImageURLs != nil {
		out.ImageURLs = append([]string(nil), s.ImageURLs...)
	}
	if s.Items != nil {
		out.Items = append([]SectionItem(nil), s.Items...)
	}
	return out
}

func CloneSections(in []SectionData) []SectionData {
	if in == nil {
		return nil
	}
	out := make([]SectionData, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// SectionPatch carries the fields of a partial section update. Nil fields
// are left untouched.
type SectionPatch struct {
	Title      *string        `json:"title,omitempty"`
	Content    *string        `json:"content,omitempty"`
	SubContent *string        `json:"sub_content,omitempty"`
	ImageURL   *string        `json:"image_url,omitempty"`
	ImageURLs  *[]string      `json:"image_urls,omitempty"`
	Items      *[]SectionItem `json:"items,omitempty"`
}

func (p SectionPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.SubContent == nil &&
		p.ImageURL == nil && p.ImageURLs == nil && p.Items == nil
}

// Apply merges p into s and returns the result; s itself is not modified.
func (p SectionPatch) Apply(s SectionData) SectionData {
	out := s.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.SubContent != nil {
		out.SubContent = *p.SubContent
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.ImageURLs != nil {
		urls := append([]string(nil), (*p.ImageURLs)...)
		if len(urls) > MaxGalleryImages {
			urls = urls[:MaxGalleryImages]
		}
		out.ImageURLs = urls
	}
	if p.Items != nil {
		out.Items = append([]SectionItem(nil), (*p.Items)...)
	}
	return out
}
