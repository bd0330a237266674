package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/tutoring_api/internal/apperror"
	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	u.ID = 77
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) UpdateVerification(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) SearchTeachers(ctx context.Context, s model.TeacherSearch) ([]model.User, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]model.User), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetTeacher(ctx context.Context, id int64) (*model.TeacherProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TeacherProfile), args.Error(1)
}

func (m *mockCache) SetTeacher(ctx context.Context, t *model.TeacherProfile) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockCache) InvalidateTeacher(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "hashed:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type staticTokens struct{}

func (staticTokens) Issue(userID int64, role model.Role) (string, error) {
	return "token-" + string(role), nil
}

func newUserService(repo *mockUserRepo, cache TeacherCache) *UserService {
	return NewUserService(repo, cache, plainHasher{}, staticTokens{}, zap.NewNop())
}

func TestUserService_Register(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "kofi@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.PasswordHash == "hashed:secret" && u.Role == model.RoleStudent
	})).Return(nil)

	svc := newUserService(repo, nil)
	u, err := svc.Register(context.Background(), RegisterInput{Username: "kofi", Email: "kofi@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(77), u.ID)
	assert.Equal(t, model.VerificationPending, u.VerificationStatus)
	repo.AssertExpectations(t)
}

func TestUserService_RegisterRejectsAdminRole(t *testing.T) {
	svc := newUserService(new(mockUserRepo), nil)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "p", Role: model.RoleAdmin})
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_RegisterDuplicateEmail(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "kofi@example.com").Return(&model.User{ID: 1}, nil)

	svc := newUserService(repo, nil)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "kofi@example.com", Password: "p"})
	assert.Equal(t, apperror.KindAlreadyExists, apperror.KindOf(err))
}

func TestUserService_Login(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByEmail", mock.Anything, "ama@example.com").
		Return(&model.User{ID: 1, Role: model.RoleTeacher, PasswordHash: "hashed:right"}, nil)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	svc := newUserService(repo, nil)

	token, user, err := svc.Login(context.Background(), "ama@example.com", "right")
	require.NoError(t, err)
	assert.Equal(t, "token-teacher", token)
	assert.Equal(t, int64(1), user.ID)

	_, _, err = svc.Login(context.Background(), "ama@example.com", "wrong")
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "x")
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
}

func TestUserService_CompleteTeacherProfile(t *testing.T) {
	repo := new(mockUserRepo)
	cache := new(mockCache)
	repo.On("GetByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, Role: model.RoleStudent}, nil)
	repo.On("UpdateProfile", mock.Anything, mock.Anything).Return(nil)
	cache.On("InvalidateTeacher", mock.Anything, int64(5)).Return(nil)

	svc := newUserService(repo, cache)
	price := 50.0
	u, err := svc.CompleteProfile(context.Background(), 5, ProfileInput{
		Role:            model.RoleTeacher,
		FullName:        "Ama Mensah",
		Subjects:        []string{"Mathematics"},
		Availability:    []model.AvailabilityEntry{{Day: model.Monday, From: "09:00", To: "12:00"}},
		PricePerSession: &price,
		Documents:       map[string]string{"idProof": "https://files.example/id.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, u.Role)
	assert.Equal(t, model.CurrencyGHS, u.Currency)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestUserService_CompleteProfileMergesDocuments(t *testing.T) {
	repo := new(mockUserRepo)
	stored := &model.User{
		ID:       5,
		Role:     model.RoleTeacher,
		FullName: "Ama Mensah",
		Documents: map[string]string{
			"idProof":      "https://files.example/id.pdf",
			"academicCert": "https://files.example/degree.pdf",
		},
		DocumentStatus:     map[string]bool{"idProof": true, "academicCert": true},
		VerificationStatus: model.VerificationApproved,
	}
	repo.On("GetByID", mock.Anything, int64(5)).Return(stored, nil)
	repo.On("UpdateProfile", mock.Anything, mock.Anything).Return(nil)
	repo.On("UpdateVerification", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newUserService(repo, nil)
	u, err := svc.CompleteProfile(context.Background(), 5, ProfileInput{
		FullName:     "Ama Mensah",
		Subjects:     []string{"Mathematics"},
		Availability: []model.AvailabilityEntry{{Day: model.Monday, From: "09:00", To: "12:00"}},
		Documents: map[string]string{
			"idProof": "https://files.example/id-v2.pdf",
			"resume":  "https://files.example/cv.pdf",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"idProof":      "https://files.example/id-v2.pdf",
		"academicCert": "https://files.example/degree.pdf",
		"resume":       "https://files.example/cv.pdf",
	}, u.Documents)
	assert.Equal(t, map[string]bool{"academicCert": true}, u.DocumentStatus)
	assert.Equal(t, model.VerificationPending, u.VerificationStatus)
	repo.AssertExpectations(t)
}

func TestUserService_CompleteProfileKeepsVerificationForSameDocuments(t *testing.T) {
	repo := new(mockUserRepo)
	stored := &model.User{
		ID:                 5,
		Role:               model.RoleTeacher,
		Documents:          map[string]string{"idProof": "https://files.example/id.pdf"},
		DocumentStatus:     map[string]bool{"idProof": true},
		VerificationStatus: model.VerificationApproved,
	}
	repo.On("GetByID", mock.Anything, int64(5)).Return(stored, nil)
	repo.On("UpdateProfile", mock.Anything, mock.Anything).Return(nil)

	svc := newUserService(repo, nil)
	u, err := svc.CompleteProfile(context.Background(), 5, ProfileInput{
		FullName:     "Ama Mensah",
		Subjects:     []string{"Mathematics"},
		Availability: []model.AvailabilityEntry{{Day: model.Monday, From: "09:00", To: "12:00"}},
		Documents:    map[string]string{"idProof": "https://files.example/id.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationApproved, u.VerificationStatus)
	assert.True(t, u.DocumentStatus["idProof"])
	repo.AssertNotCalled(t, "UpdateVerification", mock.Anything, mock.Anything)
}

func TestUserService_CompleteProfileValidation(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, Role: model.RoleTeacher}, nil)
	svc := newUserService(repo, nil)

	tests := map[string]ProfileInput{
		"missing name":        {Subjects: []string{"Math"}},
		"teacher no subjects": {FullName: "A", Availability: []model.AvailabilityEntry{{Day: model.Monday, From: "09:00", To: "10:00"}}},
		"bad window":          {FullName: "A", Subjects: []string{"Math"}, Availability: []model.AvailabilityEntry{{Day: model.Monday, From: "12:00", To: "10:00"}}},
		"bad currency":        {FullName: "A", Subjects: []string{"Math"}, Availability: []model.AvailabilityEntry{{Day: model.Monday, From: "09:00", To: "10:00"}}, Currency: "BTC"},
		"bad level":           {FullName: "A", Levels: []string{"University"}},
		"bad role":            {FullName: "A", Role: model.RoleAdmin},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CompleteProfile(context.Background(), 5, in)
			assert.True(t, apperror.IsValidation(err), err)
		})
	}
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestUserService_TeacherProfileUsesCache(t *testing.T) {
	repo := new(mockUserRepo)
	cache := new(mockCache)
	chatID := int64(555)
	teacherUser := &model.User{
		ID:             1,
		Role:           model.RoleTeacher,
		FullName:       "Ama",
		Email:          "ama@example.com",
		Documents:      map[string]string{"idProof": "https://files.example/id.pdf"},
		TelegramChatID: &chatID,
	}
	profile := teacherUser.PublicProfile()

	cache.On("GetTeacher", mock.Anything, int64(1)).Return(nil, nil).Once()
	repo.On("GetByID", mock.Anything, int64(1)).Return(teacherUser, nil).Once()
	cache.On("SetTeacher", mock.Anything, &profile).Return(nil).Once()
	cache.On("GetTeacher", mock.Anything, int64(1)).Return(&profile, nil).Once()

	svc := newUserService(repo, cache)

	got, err := svc.TeacherProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ama", got.FullName)

	got, err = svc.TeacherProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ama", got.FullName)

	repo.AssertNumberOfCalls(t, "GetByID", 1)
	cache.AssertExpectations(t)
}

func TestUserService_SearchTeachersReturnsPublicProfiles(t *testing.T) {
	repo := new(mockUserRepo)
	chatID := int64(555)
	repo.On("SearchTeachers", mock.Anything, model.TeacherSearch{Region: "Accra"}).Return([]model.User{{
		ID:                 1,
		Username:           "ama",
		Email:              "ama@example.com",
		Role:               model.RoleTeacher,
		Region:             "Accra",
		Subjects:           []string{"Math"},
		Documents:          map[string]string{"idProof": "https://files.example/id.pdf"},
		VerificationStatus: model.VerificationApproved,
		TelegramChatID:     &chatID,
	}}, nil)

	svc := newUserService(repo, nil)
	got, err := svc.SearchTeachers(context.Background(), model.TeacherSearch{Region: "Accra"})
	require.NoError(t, err)
	assert.Equal(t, []model.TeacherProfile{{
		ID:                 1,
		FullName:           "ama",
		Region:             "Accra",
		Subjects:           []string{"Math"},
		VerificationStatus: model.VerificationApproved,
	}}, got)
}

func TestUserService_TeacherProfileHidesStudents(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetByID", mock.Anything, int64(2)).Return(&model.User{ID: 2, Role: model.RoleStudent}, nil)

	svc := newUserService(repo, nil)
	_, err := svc.TeacherProfile(context.Background(), 2)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUserService_VerifyDocument(t *testing.T) {
	repo := new(mockUserRepo)
	user := &model.User{
		ID:                 1,
		Role:               model.RoleTeacher,
		VerificationStatus: model.VerificationPending,
		Documents: map[string]string{
			"idProof": "https://files.example/id.pdf",
			"resume":  "https://files.example/cv.pdf",
		},
	}
	repo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
	repo.On("UpdateVerification", mock.Anything, user).Return(nil)

	svc := newUserService(repo, nil)
	ctx := context.Background()

	u, err := svc.VerifyDocument(ctx, 1, "idProof", true)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, u.VerificationStatus)

	u, err = svc.VerifyDocument(ctx, 1, "resume", true)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationApproved, u.VerificationStatus)

	_, err = svc.VerifyDocument(ctx, 1, "teachingCert", true)
	assert.True(t, apperror.IsValidation(err), "not uploaded")

	_, err = svc.VerifyDocument(ctx, 1, "passport", true)
	assert.True(t, apperror.IsValidation(err), "unknown type")
}
