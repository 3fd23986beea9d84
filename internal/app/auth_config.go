package app

import "github.com/hoangtran/portfolio-api/internal/auth"

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	accessTTL := c.JWT.AccessTTL
	if accessTTL <= 0 {
		accessTTL = auth.DefaultAccessTokenTTL
	}

	refreshTTL := c.JWT.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = auth.DefaultRefreshTokenTTL
	}

	return auth.JWTConfig{
		AccessSecret:    c.JWT.AccessSecret,
		RefreshSecret:   c.JWT.RefreshSecret,
		Issuer:          c.JWT.Issuer,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
	}
}

// OTPServiceConfig converts AuthConfig into OTPService parameters.
func (c AuthConfig) OTPServiceConfig() auth.OTPConfig {
	return auth.OTPConfig{
		Digits: c.OTP.Digits,
		TTL:    c.OTP.TTL,
	}
}

// DeviceServiceConfig converts AuthConfig into DeviceService parameters.
func (c AuthConfig) DeviceServiceConfig() auth.DeviceConfig {
	return auth.DeviceConfig{
		TrustTTL: c.Device.TrustTTL,
	}
}
