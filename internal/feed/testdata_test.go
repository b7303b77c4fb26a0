package feed

const londonFeed = `<?xml version="1.0"?>
<xml_api_reply version="1">
<weather module_id="0" tab_id="0" mobile_row="0" mobile_zipped="1" row="0" section="0">
<forecast_information>
<city data="London, England"/>
<postal_code data="London"/>
<latitude_e6 data=""/>
<longitude_e6 data=""/>
<forecast_date data="2011-07-01"/>
<current_date_time data="2011-07-01 10:50:00 +0000"/>
<unit_system data="US"/>
</forecast_information>
<current_conditions>
<condition data="Mostly Cloudy"/>
<temp_f data="64"/>
<temp_c data="18"/>
<humidity data="Humidity: 56%"/>
<icon data="/ig/images/weather/mostly_cloudy.gif"/>
<wind_condition data="Wind: W at 14 mph"/>
</current_conditions>
<forecast_conditions>
<day_of_week data="Fri"/>
<low data="50"/>
<high data="68"/>
<icon data="/ig/images/weather/mostly_sunny.gif"/>
<condition data="Mostly Sunny"/>
</forecast_conditions>
<forecast_conditions>
<day_of_week data="Sat"/>
<low data="54"/>
<high data="72"/>
<icon data="/ig/images/weather/chance_of_rain.gif"/>
<condition data="Chance of Rain"/>
</forecast_conditions>
<forecast_conditions>
<day_of_week data="Sun"/>
<low data="57"/>
<high data="75"/>
<icon data="/ig/images/weather/sunny.gif"/>
<condition data="Clear"/>
</forecast_conditions>
</weather>
</xml_api_reply>`

const problemFeed = `<?xml version="1.0"?>
<xml_api_reply version="1">
<weather module_id="0" tab_id="0" mobile_row="0" mobile_zipped="1" row="0" section="0">
<problem_cause data=""/>
</weather>
</xml_api_reply>`
