package service

import (
	"errors"

	"github.com/DeifMohamed2/mrRaafat/internal/model"
	"github.com/DeifMohamed2/mrRaafat/internal/repository"
	"github.com/DeifMohamed2/mrRaafat/internal/util"
	"github.com/DeifMohamed2/mrRaafat/pkg/logger"

	"go.uber.org/zap"
)

// AccessLevel classifies why a student may (or may not) enter a quiz.
type AccessLevel string

const (
	AccessFree      AccessLevel = "free"
	AccessGeneral   AccessLevel = "general"
	AccessPurchased AccessLevel = "purchased"
	AccessDenied    AccessLevel = "denied"
)

// AccessService answers entitlement questions and redeems access codes.
type AccessService struct {
	codeRepo *repository.AccessCodeRepository
	userRepo *repository.UserRepository
	quizRepo *repository.QuizRepository
}

func NewAccessService(codeRepo *repository.AccessCodeRepository, userRepo *repository.UserRepository, quizRepo *repository.QuizRepository) *AccessService {
	return &AccessService{codeRepo: codeRepo, userRepo: userRepo, quizRepo: quizRepo}
}

// CanAttempt resolves the strongest entitlement the student holds for the
// quiz. Order matters only for the label; any non-denied level admits.
func (s *AccessService) CanAttempt(user *model.User, quiz *model.Quiz) (AccessLevel, error) {
	if user == nil || quiz == nil {
		return AccessDenied, nil
	}
	if user.Role != model.Student {
		return AccessGeneral, nil
	}
	if user.Grade != quiz.Grade {
		return AccessDenied, util.ErrGradeMismatch
	}
	if quiz.Free() {
		return AccessFree, nil
	}
	if user.GeneralQuizAccess {
		return AccessGeneral, nil
	}

	purchased, err := s.codeRepo.HasQuizPurchase(user.ID, quiz.ID)
	if err != nil {
		return AccessDenied, err
	}
	if purchased {
		return AccessPurchased, nil
	}
	return AccessDenied, nil
}

// CanViewChapter mirrors CanAttempt for chapter content.
func (s *AccessService) CanViewChapter(user *model.User, chapter *model.Chapter) (AccessLevel, error) {
	if user == nil || chapter == nil {
		return AccessDenied, nil
	}
	if user.Role != model.Student {
		return AccessGeneral, nil
	}
	if user.Grade != chapter.Grade {
		return AccessDenied, util.ErrGradeMismatch
	}
	if chapter.Free() {
		return AccessFree, nil
	}
	if user.GeneralChapterAccess {
		return AccessGeneral, nil
	}

	purchased, err := s.codeRepo.HasChapterPurchase(user.ID, chapter.ID)
	if err != nil {
		return AccessDenied, err
	}
	if purchased {
		return AccessPurchased, nil
	}
	return AccessDenied, nil
}

// RedeemQuizCode consumes a code to unlock one quiz for the student.
// Single-use enforcement is a conditional update on the code row, so two
// concurrent redemptions cannot both succeed.
func (s *AccessService) RedeemQuizCode(userID, quizID uint, code string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return util.ErrUserNotFound
	}

	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		return err
	}
	if quiz == nil {
		return util.ErrQuizNotFound
	}
	if !user.CanPurchaseContent(quiz.Grade) {
		return util.ErrGradeMismatch
	}

	already, err := s.codeRepo.HasQuizPurchase(userID, quizID)
	if err != nil {
		return err
	}
	if already {
		return util.ErrAlreadyPurchased
	}

	ac, err := s.lookupCode(code, model.CodeTypeQuiz, user.Grade)
	if err != nil {
		return err
	}

	won, err := s.codeRepo.MarkUsed(ac.ID, userID)
	if err != nil {
		return err
	}
	if !won {
		return util.ErrCodeAlreadyUsed
	}

	if ac.CodeType == model.CodeTypeGeneralQuiz {
		if err := s.userRepo.GrantGeneralQuizAccess(userID); err != nil {
			return err
		}
		logger.Log.Info("general quiz access granted", zap.Uint("userId", userID), zap.String("code", code))
		return nil
	}

	if err := s.codeRepo.CreateQuizPurchase(&model.QuizPurchase{UserID: userID, QuizID: quizID, CodeID: ac.ID}); err != nil {
		return err
	}
	logger.Log.Info("quiz purchased", zap.Uint("userId", userID), zap.Uint("quizId", quizID))
	return nil
}

// RedeemChapterCode consumes a code to unlock one chapter for the student.
func (s *AccessService) RedeemChapterCode(userID, chapterID uint, code string, chapterRepo *repository.ChapterRepository) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return util.ErrUserNotFound
	}

	chapter, err := chapterRepo.FindByID(chapterID)
	if err != nil {
		return err
	}
	if chapter == nil {
		return util.ErrChapterNotFound
	}
	if !user.CanPurchaseContent(chapter.Grade) {
		return util.ErrGradeMismatch
	}

	already, err := s.codeRepo.HasChapterPurchase(userID, chapterID)
	if err != nil {
		return err
	}
	if already {
		return util.ErrAlreadyPurchased
	}

	ac, err := s.lookupCode(code, model.CodeTypeChapter, user.Grade)
	if err != nil {
		return err
	}

	won, err := s.codeRepo.MarkUsed(ac.ID, userID)
	if err != nil {
		return err
	}
	if !won {
		return util.ErrCodeAlreadyUsed
	}

	if ac.CodeType == model.CodeTypeGeneralChapter {
		if err := s.userRepo.GrantGeneralChapterAccess(userID); err != nil {
			return err
		}
		logger.Log.Info("general chapter access granted", zap.Uint("userId", userID), zap.String("code", code))
		return nil
	}

	if err := s.codeRepo.CreateChapterPurchase(&model.ChapterPurchase{UserID: userID, ChapterID: chapterID, CodeID: ac.ID}); err != nil {
		return err
	}
	logger.Log.Info("chapter purchased", zap.Uint("userId", userID), zap.Uint("chapterId", chapterID))
	return nil
}

func (s *AccessService) lookupCode(code string, wantType model.CodeType, grade string) (*model.AccessCode, error) {
	ac, err := s.codeRepo.FindByCode(code)
	if err != nil {
		return nil, err
	}
	if ac == nil {
		return nil, util.ErrCodeNotFound
	}
	if ac.Used {
		return nil, util.ErrCodeAlreadyUsed
	}
	if ac.CodeType != wantType && !isGeneralVariant(ac.CodeType, wantType) {
		return nil, util.ErrCodeTypeMismatch
	}
	if !ac.IsAllGrades && ac.Grade != grade {
		return nil, util.ErrGradeMismatch
	}
	return ac, nil
}

// isGeneralVariant accepts an all-content code wherever a scoped one is
// expected.
func isGeneralVariant(got, want model.CodeType) bool {
	switch want {
	case model.CodeTypeQuiz:
		return got == model.CodeTypeGeneralQuiz
	case model.CodeTypeChapter:
		return got == model.CodeTypeGeneralChapter
	}
	return false
}

// GenerateCodes mints a batch of unused codes for teachers to distribute.
func (s *AccessService) GenerateCodes(codeType model.CodeType, grade string, allGrades bool, count int) ([]model.AccessCode, error) {
	if count <= 0 || count > 500 {
		return nil, errors.New("count must be between 1 and 500")
	}
	codes := make([]model.AccessCode, count)
	for i := range codes {
		codes[i] = model.AccessCode{CodeType: codeType, Grade: grade, IsAllGrades: allGrades}
	}
	if err := s.codeRepo.CreateBatch(codes); err != nil {
		return nil, err
	}
	return codes, nil
}
