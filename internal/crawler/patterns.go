package crawler

import (
	"regexp"
	"strings"
)

var (
	reDiscountRatio = regexp.MustCompile(`\d+(?:\.\d+)?\s*折`)
	rePercent       = regexp.MustCompile(`\d+(?:\.\d+)?\s*[%％]`)
	reMinSpend      = regexp.MustCompile(`滿\s*\d+`)
	rePrice         = regexp.MustCompile(`(?i)NT\$\s*\d|\d+\s*元`)
	reShortDate     = regexp.MustCompile(`(?:^|[^\d/])\d{1,2}/\d{1,2}(?:$|[^\d/])`)
	reFullDate      = regexp.MustCompile(`\d{4}[-/.]\d{1,2}[-/.]\d{1,2}`)
	rePeriodPhrase  = regexp.MustCompile(`活動期間|活動時間|期間`)
)

// chromeTexts are navigation and account links that never describe a promotion
var chromeTexts = []string{
	"登入", "登出", "註冊", "加入會員", "會員中心", "我的帳戶", "我的書櫃", "忘記密碼",
	"購物車", "結帳", "客服", "常見問題", "聯絡我們", "關於我們",
	"隱私權", "服務條款", "使用條款", "版權", "Copyright", "©",
	"下載APP", "下載 APP", "App Store", "Google Play",
	"回首頁", "回到頂端", "看更多", "查看更多", "更多活動",
}

// promoKeywords each add one point to a scored candidate
var promoKeywords = []string{
	"優惠", "特價", "限時", "書展", "免運", "折價券", "優惠券", "折扣碼",
	"買一送一", "回饋", "加碼", "點數", "首購", "獨家", "狂歡", "滿額",
}

// contradictoryKeywords mark serial or adult listings rather than promotions
var contradictoryKeywords = []string{"連載", "限制級"}

// cardKeywords select keyword_link candidates
var cardKeywords = []string{"折", "活動", "書展", "特價", "滿", "限時"}

const (
	linkTextMin = 6
	linkTextMax = 90
)

func isChrome(text string) bool {
	for _, c := range chromeTexts {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func withinLinkWindow(text string) bool {
	n := runeLen(text)
	return n >= linkTextMin && n <= linkTextMax
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// isMetaLike reports a discount, percentage or date fragment
func isMetaLike(text string) bool {
	return reDiscountRatio.MatchString(text) ||
		rePercent.MatchString(text) ||
		reFullDate.MatchString(text) ||
		reShortDate.MatchString(text)
}
