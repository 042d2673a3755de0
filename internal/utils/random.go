package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
}

var firstNames = []string{
	"Anna", "Erik", "Sara", "Johan", "Emma", "Lars", "Maja", "Oskar", "Elsa", "Nils",
}
var lastNames = []string{
	"Lind", "Berg", "Holm", "Dahl", "Ek", "Sandberg", "Nyström", "Falk", "Strand", "Wik",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

func GenerateRandomLatinName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

// GenerateRandomName picks a Chinese name about a third of the time.
func GenerateRandomName() string {
	if rand.Intn(3) == 0 {
		return GenerateRandomChineseName()
	}
	return GenerateRandomLatinName()
}

// UsernameFromName lowercases the ASCII letters and digits of name and spells Han
// characters in pinyin without tones, so "王伟" becomes "wangwei" and
// "Anna Lind" becomes "annalind". Anything else is dropped.
func UsernameFromName(name string) string {
	var b strings.Builder
	var han []rune

	flush := func() {
		if len(han) == 0 {
			return
		}
		for _, syllable := range pinyin.LazyConvert(string(han), nil) {
			b.WriteString(syllable)
		}
		han = han[:0]
	}

	for _, r := range name {
		switch {
		case unicode.Is(unicode.Han, r):
			han = append(han, r)
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			flush()
			b.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()

	return b.String()
}

var digits = "0123456789"

// GenerateUsername derives a username from name with a short random numeric
// suffix, which keeps seeded usernames mostly unique.
func GenerateUsername(name string) string {
	username := UsernameFromName(name)
	if username == "" {
		username = "user"
	}

	digitsLength := rand.Intn(3) + 2
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomUser builds a user with the given role. Hashing is left to the
// caller so one hash can be shared by a whole batch.
func GenerateRandomUser(passwordHash string, emailDomainName string, role domain.Role) *domain.User {
	username := GenerateUsername(GenerateRandomName())

	return &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        username + "@" + emailDomainName,
		Role:         role,
	}
}

var businesses = []string{
	"Café Linnea", "Norra Bageriet", "Hotell Strand", "Pizzeria Bella", "Lagerhuset",
	"Stadsbiblioteket", "Sushi Ya", "Kvarterskrogen",
}

var shiftRoles = []string{
	"Barista", "Cashier", "Cook", "Dishwasher", "Receptionist", "Waiter", "Warehouse",
}

var pays = []string{"150 kr/h", "165 kr/h", "180 kr/h", "200 kr/h", "1200 kr"}

// GenerateRandomShift builds an OPEN shift for manager within the next four weeks.
// Some shifts run overnight and some carry no pay.
func GenerateRandomShift(manager *domain.User, today time.Time) *domain.Shift {
	startHour := rand.Intn(24)
	length := rand.Intn(7) + 3
	endHour := (startHour + length) % 24

	shift := &domain.Shift{
		ManagerID: manager.ID,
		Business:  businesses[rand.Intn(len(businesses))],
		RoleName:  shiftRoles[rand.Intn(len(shiftRoles))],
		Date:      domain.DateOf(today).AddDays(rand.Intn(28) + 1),
		StartTime: fmt.Sprintf("%02d:%02d", startHour, rand.Intn(2)*30),
		EndTime:   fmt.Sprintf("%02d:00", endHour),
		Status:    domain.ShiftStatusOpen,
	}

	if rand.Intn(4) != 0 {
		pay := pays[rand.Intn(len(pays))]
		shift.Pay = &pay
	}

	return shift
}
